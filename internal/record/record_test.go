package record

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meanstat/internal/analysis"
	"meanstat/internal/curve"
	"meanstat/internal/db"
	"meanstat/internal/stats"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
}

func openDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestIntervalRoundTrip(t *testing.T) {
	database := openDB(t)

	res, err := analysis.RunInterval(analysis.IntervalRequest{Data: "10, 12, 11, 13, 9", Confidence: "95", Method: "z"})
	require.NoError(t, err)

	id, err := Interval(database, res, fixedClock)
	require.NoError(t, err)

	stored, err := database.GetAnalysis(id)
	require.NoError(t, err)
	assert.Equal(t, "interval", stored.Kind)
	assert.Equal(t, "Z", stored.Method)
	assert.Equal(t, "10,12,11,13,9", stored.Sample)
	assert.Equal(t, 95.0, stored.Parameter)
	assert.Equal(t, "2026-10-19T12:00:00Z", stored.CreatedAt)
	assert.Equal(t, res.Text, stored.ResultText)

	spec, err := Curve(stored)
	require.NoError(t, err)
	assert.Equal(t, *res.Curve, spec)
}

func TestTestRoundTrip(t *testing.T) {
	database := openDB(t)

	res, err := analysis.RunTest(analysis.TestRequest{Data: "10,12,11,13,9", Null: "12", Method: "t"})
	require.NoError(t, err)

	id, err := Test(database, res, nil)
	require.NoError(t, err)

	stored, err := database.GetAnalysis(id)
	require.NoError(t, err)
	require.NotNil(t, stored.Statistic)
	assert.Equal(t, -1.4142, *stored.Statistic)
	assert.Nil(t, stored.Lower)

	spec, err := Curve(stored)
	require.NoError(t, err)
	assert.Equal(t, curve.TitleTest, spec.Title)
	assert.Equal(t, 4, spec.DegreesOfFreedom)
}

func TestCurveForConstantSample(t *testing.T) {
	database := openDB(t)

	res, err := analysis.RunInterval(analysis.IntervalRequest{Data: "2,2", Confidence: "95", Method: "t"})
	require.NoError(t, err)
	id, err := Interval(database, res, fixedClock)
	require.NoError(t, err)

	stored, err := database.GetAnalysis(id)
	require.NoError(t, err)
	_, err = Curve(stored)
	assert.ErrorIs(t, err, stats.ErrDegenerateSample)
}

func TestDefaultFile(t *testing.T) {
	assert.Equal(t, "resultado_pruebas_medias.txt", DefaultFile("test"))
	assert.Equal(t, "resultado_intervalo_confianza.txt", DefaultFile("interval"))
}
