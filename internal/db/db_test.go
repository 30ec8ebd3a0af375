package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func f(v float64) *float64 { return &v }

func TestInsertAndGetAnalysis(t *testing.T) {
	database := openTemp(t)

	in := &Analysis{
		Kind:       "interval",
		Method:     "Z",
		Sample:     "10,12,11,13,9",
		SampleSize: 5,
		Mean:       11,
		StdErr:     0.7071,
		Parameter:  95,
		Lower:      f(9.6141),
		Upper:      f(12.3859),
		Critical:   f(1.96),
		ResultText: "Intervalo de confianza: (9.6141, 12.3859)",
		CreatedAt:  "2026-01-02T03:04:05Z",
	}
	id, err := database.InsertAnalysis(in)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := database.GetAnalysis(id)
	require.NoError(t, err)
	assert.Equal(t, in.Sample, got.Sample)
	assert.Equal(t, in.ResultText, got.ResultText)
	require.NotNil(t, got.Lower)
	assert.Equal(t, 9.6141, *got.Lower)
	assert.Nil(t, got.Statistic)
	assert.Nil(t, got.PValue)

	_, err = database.GetAnalysis(id + 100)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListCountDelete(t *testing.T) {
	database := openTemp(t)

	for i, created := range []string{"2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z", "2026-03-01T00:00:00Z"} {
		kind := "interval"
		if i == 1 {
			kind = "test"
		}
		_, err := database.InsertAnalysis(&Analysis{
			Kind: kind, Method: "t", Sample: "1,2", SampleSize: 2,
			Mean: 1.5, StdErr: 0.5, Parameter: 1, ResultText: "r", CreatedAt: created,
		})
		require.NoError(t, err)
	}

	all, err := database.ListAnalyses(0, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2026-03-01T00:00:00Z", all[0].CreatedAt, "newest first")

	tests, err := database.ListAnalyses(10, "test", "")
	require.NoError(t, err)
	assert.Len(t, tests, 1)

	recent, err := database.ListAnalyses(0, "", "2026-02-01")
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	n, err := database.CountAnalyses("interval")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := database.RecentAnalysisIDs(2)
	require.NoError(t, err)
	assert.Equal(t, []int64{all[0].ID, all[1].ID}, ids)

	latest, err := database.GetLatestAnalysis()
	require.NoError(t, err)
	assert.Equal(t, all[0].ID, latest.ID)

	deleted, err := database.DeleteAnalysesBefore("2026-02-15")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	require.NoError(t, database.DeleteAnalysis(all[0].ID))
	assert.ErrorIs(t, database.DeleteAnalysis(all[0].ID), sql.ErrNoRows)

	n, err = database.CountAnalyses("")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{}
	pg := &DB{postgres: true}

	q := `SELECT * FROM analyses WHERE kind = ? AND created_at >= ? LIMIT ?`
	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, `SELECT * FROM analyses WHERE kind = $1 AND created_at >= $2 LIMIT $3`, pg.rebind(q))

	assert.True(t, IsPostgres("postgres://u:p@localhost/meanstat?sslmode=disable"))
	assert.False(t, IsPostgres("/tmp/history.db"))
}
