package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"meanstat/internal/analysis"
	"meanstat/internal/curve"
	"meanstat/internal/db"
	"meanstat/internal/record"
	"meanstat/internal/render"
	"meanstat/internal/sample"
	"meanstat/internal/stats"
)

const maxUploadBytes = 32 << 20

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeAnalysisError maps pipeline failures to 400 and everything else to 500.
func (s *Server) writeAnalysisError(w http.ResponseWriter, kind analysis.Kind, err error) {
	s.metrics.failures.WithLabelValues(string(kind)).Inc()
	if analysis.IsUserError(err) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: analysis.Message(err), Detail: err.Error()})
		return
	}
	s.logger.Error("analysis failed", zap.String("kind", string(kind)), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

type intervalResponse struct {
	ID         int64       `json:"id,omitempty"`
	Method     string      `json:"method"`
	SampleSize int         `json:"sample_size"`
	Mean       float64     `json:"mean"`
	StdErr     float64     `json:"std_err"`
	Confidence float64     `json:"confidence"`
	Critical   float64     `json:"critical"`
	Lower      float64     `json:"lower"`
	Upper      float64     `json:"upper"`
	Text       string      `json:"text"`
	Curve      *curve.Spec `json:"curve,omitempty"`
}

type testResponse struct {
	ID         int64      `json:"id,omitempty"`
	Method     string     `json:"method"`
	SampleSize int        `json:"sample_size"`
	Mean       float64    `json:"mean"`
	StdErr     float64    `json:"std_err"`
	Null       float64    `json:"null"`
	Statistic  float64    `json:"statistic"`
	PValue     float64    `json:"p_value"`
	Text       string     `json:"text"`
	Curve      curve.Spec `json:"curve"`
}

// shouldRecord is false when the request asks for ?record=false.
func shouldRecord(r *http.Request) bool {
	v := r.URL.Query().Get("record")
	if v == "" {
		return true
	}
	ok, err := strconv.ParseBool(v)
	return err != nil || ok
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analysis.IntervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := analysis.RunInterval(req)
	if err != nil {
		s.writeAnalysisError(w, analysis.KindInterval, err)
		return
	}
	s.metrics.analyses.WithLabelValues(string(analysis.KindInterval), string(res.Method)).Inc()

	response := intervalResponse{
		Method:     string(res.Method),
		SampleSize: res.Summary.SampleSize,
		Mean:       res.Summary.Mean,
		StdErr:     res.Summary.StdErr,
		Confidence: res.Interval.Level,
		Critical:   res.Interval.Critical,
		Lower:      res.Interval.Lower,
		Upper:      res.Interval.Upper,
		Text:       res.Text,
		Curve:      res.Curve,
	}

	if s.db != nil && shouldRecord(r) {
		id, err := record.Interval(s.db, res, s.now)
		if err != nil {
			s.logger.Error("record interval", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.ID = id
		s.pruneCache()
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analysis.TestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := analysis.RunTest(req)
	if err != nil {
		s.writeAnalysisError(w, analysis.KindTest, err)
		return
	}
	s.metrics.analyses.WithLabelValues(string(analysis.KindTest), string(res.Method)).Inc()

	response := testResponse{
		Method:     string(res.Method),
		SampleSize: res.Summary.SampleSize,
		Mean:       res.Summary.Mean,
		StdErr:     res.Summary.StdErr,
		Null:       res.Result.NullValue,
		Statistic:  res.Result.Statistic,
		PValue:     res.Result.PValue,
		Text:       res.Text,
		Curve:      res.Curve,
	}

	if s.db != nil && shouldRecord(r) {
		id, err := record.Test(s.db, res, s.now)
		if err != nil {
			s.logger.Error("record test", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.ID = id
		s.pruneCache()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleLoad accepts a multipart "file" field and returns the flattened
// sample as comma-separated text ready for the data field.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp("", "meanstat-upload-*"+ext)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		http.Error(w, fmt.Sprintf("read upload: %v", err), http.StatusBadRequest)
		return
	}
	if err := tmp.Close(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	smp, err := sample.ParseFile(tmp.Name())
	if err != nil {
		if analysis.IsUserError(err) || errors.Is(err, stats.ErrFileRead) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: analysis.Message(err), Detail: err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info("loaded sample", zap.String("file", header.Filename), zap.Int("values", smp.Len()))
	writeJSON(w, http.StatusOK, struct {
		Data  string `json:"data"`
		Count int    `json:"count"`
	}{Data: smp.String(), Count: smp.Len()})
}

type analysisResponse struct {
	ID         int64    `json:"id"`
	Kind       string   `json:"kind"`
	Method     string   `json:"method"`
	SampleSize int64    `json:"sample_size"`
	Mean       float64  `json:"mean"`
	StdErr     float64  `json:"std_err"`
	Parameter  float64  `json:"parameter"`
	Lower      *float64 `json:"lower,omitempty"`
	Upper      *float64 `json:"upper,omitempty"`
	Critical   *float64 `json:"critical,omitempty"`
	Statistic  *float64 `json:"statistic,omitempty"`
	PValue     *float64 `json:"p_value,omitempty"`
	Text       string   `json:"text"`
	CreatedAt  string   `json:"created_at"`
	Sample     string   `json:"sample,omitempty"`
}

func toResponse(a *db.Analysis, withSample bool) analysisResponse {
	resp := analysisResponse{
		ID:         a.ID,
		Kind:       a.Kind,
		Method:     a.Method,
		SampleSize: a.SampleSize,
		Mean:       a.Mean,
		StdErr:     a.StdErr,
		Parameter:  a.Parameter,
		Lower:      a.Lower,
		Upper:      a.Upper,
		Critical:   a.Critical,
		Statistic:  a.Statistic,
		PValue:     a.PValue,
		Text:       a.ResultText,
		CreatedAt:  a.CreatedAt,
	}
	if withSample {
		resp.Sample = a.Sample
	}
	return resp
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	kind := r.URL.Query().Get("kind")
	since := r.URL.Query().Get("since")

	analyses, err := s.db.ListAnalyses(limit, kind, since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := make([]analysisResponse, 0, len(analyses))
	for i := range analyses {
		response = append(response, toResponse(&analyses[i], false))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) routeAnalysesAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analyses/")

	switch {
	case strings.HasSuffix(path, "/curve.svg"):
		s.handleCurveSVG(w, r, strings.TrimSuffix(path, "/curve.svg"))
	case strings.HasSuffix(path, "/result.txt"):
		s.handleResultText(w, r, strings.TrimSuffix(path, "/result.txt"))
	case r.Method == http.MethodDelete:
		s.handleDeleteAnalysis(w, r, path)
	case r.Method == http.MethodGet:
		s.handleAnalysis(w, r, path)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// lookup parses idStr and loads the row, writing the error response itself.
func (s *Server) lookup(w http.ResponseWriter, idStr string) (*db.Analysis, bool) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid analysis id", http.StatusBadRequest)
		return nil, false
	}

	a, err := s.db.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "analysis not found", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return a, true
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request, idStr string) {
	a, ok := s.lookup(w, idStr)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a, true))
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid analysis id", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteAnalysis(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "analysis not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if s.svgCache != nil {
		if err := s.svgCache.Delete(id); err != nil {
			s.logger.Warn("drop cached curve", zap.Int64("id", id), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleResultText serves the stored result as a download named like the
// file the save action writes.
func (s *Server) handleResultText(w http.ResponseWriter, r *http.Request, idStr string) {
	a, ok := s.lookup(w, idStr)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.DefaultFile(a.Kind)))
	_, _ = io.WriteString(w, a.ResultText)
}

func (s *Server) acquireRenderSlot(ctx context.Context) error {
	if s.renderSem == nil {
		return nil
	}
	select {
	case s.renderSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) releaseRenderSlot() {
	if s.renderSem == nil {
		return
	}
	select {
	case <-s.renderSem:
	default:
	}
}

func (s *Server) renderCurve(ctx context.Context, a *db.Analysis) ([]byte, error) {
	spec, err := record.Curve(a)
	if err != nil {
		return nil, err
	}
	if err := s.acquireRenderSlot(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRenderSlot()
	return render.SVG(spec)
}

func (s *Server) handleCurveSVG(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	a, ok := s.lookup(w, idStr)
	if !ok {
		return
	}

	generate := func() ([]byte, error) { return s.renderCurve(r.Context(), a) }

	var svg []byte
	var err error
	if s.svgCache != nil {
		svg, err = s.svgCache.GetOrGenerate(a.ID, generate)
	} else {
		svg, err = generate()
	}
	if err != nil {
		if errors.Is(err, stats.ErrDegenerateSample) {
			http.Error(w, "analysis has no curve", http.StatusNotFound)
			return
		}
		s.logger.Error("render curve", zap.Int64("id", a.ID), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// pruneCache drops cached curves of analyses that fell out of the newest
// window.
func (s *Server) pruneCache() {
	if s.svgCache == nil {
		return
	}
	ids, err := s.db.RecentAnalysisIDs(s.maxCached)
	if err != nil {
		s.logger.Warn("list recent analyses", zap.Error(err))
		return
	}
	if err := s.svgCache.Prune(ids); err != nil {
		s.logger.Warn("prune curve cache", zap.Error(err))
	}
}
