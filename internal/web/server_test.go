package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meanstat/internal/db"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	t.Setenv(EnvCacheDir, filepath.Join(t.TempDir(), "svg"))

	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := NewServer(database, ":0", nil)
	srv.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestIntervalEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/interval", map[string]string{
		"data": "10,12,11,13,9", "confidence": "95", "method": "Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got intervalResponse
	decode(t, resp, &got)
	assert.NotZero(t, got.ID)
	assert.Equal(t, 9.6141, got.Lower)
	assert.Equal(t, 12.3859, got.Upper)
	assert.Equal(t, "Intervalo de confianza: (9.6141, 12.3859)", got.Text)
	require.NotNil(t, got.Curve)
	assert.Len(t, got.Curve.Lines, 3)
}

func TestTestEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/test?record=false", map[string]string{
		"data": "10,12,11,13,9", "null": "12", "method": "t",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got testResponse
	decode(t, resp, &got)
	assert.Zero(t, got.ID)
	assert.Equal(t, -1.4142, got.Statistic)
	assert.Equal(t, 0.2302, got.PValue)

	list, err := http.Get(ts.URL + "/api/analyses")
	require.NoError(t, err)
	defer list.Body.Close()
	var rows []analysisResponse
	decode(t, list, &rows)
	assert.Empty(t, rows)
}

func TestInvalidInputIsBadRequest(t *testing.T) {
	_, ts := newTestServer(t)

	testCases := []struct {
		name string
		path string
		body map[string]string
		want string
	}{
		{"non-numeric data", "/api/interval", map[string]string{"data": "a,b", "confidence": "95", "method": "Z"}, "comma"},
		{"bad confidence", "/api/interval", map[string]string{"data": "1,2,3", "confidence": "150", "method": "Z"}, "confidence"},
		{"bad null", "/api/test", map[string]string{"data": "1,2,3", "null": "x", "method": "t"}, "null hypothesis"},
		{"bad method", "/api/test", map[string]string{"data": "1,2,3", "null": "2", "method": "F"}, "test type"},
		{"constant sample test", "/api/test", map[string]string{"data": "5,5,5", "null": "5", "method": "Z"}, "standard error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var got errorResponse
			decode(t, resp, &got)
			assert.Contains(t, got.Error, tc.want)
		})
	}
}

func TestAnalysesLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/test", map[string]string{
		"data": "10,12,11,13,9", "null": "12", "method": "Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created testResponse
	decode(t, resp, &created)
	base := fmt.Sprintf("%s/api/analyses/%d", ts.URL, created.ID)

	t.Run("get returns the stored sample", func(t *testing.T) {
		resp, err := http.Get(base)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got analysisResponse
		decode(t, resp, &got)
		assert.Equal(t, "test", got.Kind)
		assert.Equal(t, "10,12,11,13,9", got.Sample)
		require.NotNil(t, got.PValue)
		assert.Equal(t, 0.1573, *got.PValue)
		assert.Nil(t, got.Lower)
		assert.Equal(t, "2024-03-01T12:00:00Z", got.CreatedAt)
	})

	t.Run("curve renders as svg", func(t *testing.T) {
		resp, err := http.Get(base + "/curve.svg")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "<svg")
	})

	t.Run("result text downloads with the default name", func(t *testing.T) {
		resp, err := http.Get(base + "/result.txt")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "resultado_pruebas_medias.txt")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "Estadístico: -1.4142\nValor p: 0.1573", string(body))
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, base, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, err = http.Get(base)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id is bad request", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/analyses/abc")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestZeroWidthIntervalHasNoCurve(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/interval", map[string]string{
		"data": "5,5,5", "confidence": "95", "method": "t",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got intervalResponse
	decode(t, resp, &got)
	assert.Nil(t, got.Curve)

	svg, err := http.Get(fmt.Sprintf("%s/api/analyses/%d/curve.svg", ts.URL, got.ID))
	require.NoError(t, err)
	svg.Body.Close()
	assert.Equal(t, http.StatusNotFound, svg.StatusCode)
}

func TestLoadEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	upload := func(t *testing.T, name, content string) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(ts.URL+"/api/load", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	t.Run("csv is flattened row by row", func(t *testing.T) {
		resp := upload(t, "sample.csv", "a,b\n1,2\n3,4.5\n")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got struct {
			Data  string `json:"data"`
			Count int    `json:"count"`
		}
		decode(t, resp, &got)
		assert.Equal(t, "1,2,3,4.5", got.Data)
		assert.Equal(t, 4, got.Count)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		resp := upload(t, "sample.json", "[1,2]")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var got errorResponse
		decode(t, resp, &got)
		assert.Contains(t, got.Error, ".csv")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	postJSON(t, ts.URL+"/api/interval", map[string]string{"data": "1,2,3", "confidence": "95", "method": "Z"})
	postJSON(t, ts.URL+"/api/interval", map[string]string{"data": "1", "confidence": "95", "method": "Z"})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `meanstat_analyses_total{kind="interval",method="Z"} 1`), text)
	assert.True(t, strings.Contains(text, `meanstat_analysis_failures_total{kind="interval"} 1`), text)
	assert.Contains(t, text, "meanstat_http_request_duration_seconds")
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/interval")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
