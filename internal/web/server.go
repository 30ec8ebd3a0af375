package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meanstat/internal/cache"
	"meanstat/internal/db"
)

//go:embed static
var staticFiles embed.FS

// Environment variables read by NewServer.
const (
	EnvCacheDir      = "MEANSTAT_CURVE_CACHE_DIR"
	EnvCacheMax      = "MEANSTAT_CURVE_CACHE_MAX"
	EnvRenderWorkers = "MEANSTAT_RENDER_CONCURRENCY"
)

type Server struct {
	db        *db.DB
	addr      string
	svgCache  *cache.SVGCache
	maxCached int
	renderSem chan struct{}
	logger    *zap.Logger
	metrics   *metrics
	registry  *prometheus.Registry
	now       func() time.Time
}

func DefaultCacheDir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "meanstat", "svg")
	}
	return filepath.Join(os.TempDir(), "meanstat-svg")
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func NewServer(database *db.DB, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxEntries := envInt(EnvCacheMax, 50)
	maxConcurrency := envInt(EnvRenderWorkers, 2)

	svgCache, err := cache.NewSVGCache(DefaultCacheDir(), maxEntries)
	if err != nil {
		logger.Warn("curve cache disabled", zap.Error(err))
	}

	registry := prometheus.NewRegistry()

	return &Server{
		db:        database,
		addr:      addr,
		svgCache:  svgCache,
		maxCached: maxEntries,
		renderSem: make(chan struct{}, maxConcurrency),
		logger:    logger,
		metrics:   newMetrics(registry),
		registry:  registry,
		now:       time.Now,
	}
}

// Handler returns the routed mux with request instrumentation.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	appFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Error("static files unavailable", zap.Error(err))
	} else {
		mux.Handle("/", http.FileServer(http.FS(appFS)))
	}

	mux.Handle("/api/interval", s.instrument("interval", s.handleInterval))
	mux.Handle("/api/test", s.instrument("test", s.handleTest))
	mux.Handle("/api/load", s.instrument("load", s.handleLoad))
	mux.Handle("/api/analyses", s.instrument("analyses", s.handleAnalyses))
	mux.Handle("/api/analyses/", s.instrument("analysis", s.routeAnalysesAPI))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

func (s *Server) Start(openBrowser bool) error {
	if openBrowser {
		url := fmt.Sprintf("http://localhost%s", s.addr)
		go openURL(url)
	}

	s.logger.Info("starting server", zap.String("url", fmt.Sprintf("http://localhost%s", s.addr)))
	return http.ListenAndServe(s.addr, s.Handler())
}

func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}
