// Package web serves a read-only dashboard over recorded pipeline runs.
package web

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasnoah/mlfactory/internal/db"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

var funcMap = template.FuncMap{
	"badgeClass": func(status string) string {
		return "badge badge-" + strings.ReplaceAll(status, "_", "-")
	},
	"outcomeClass": func(outcome string) string {
		if outcome == pipeline.OutcomeSuccess {
			return "result-pass"
		}
		return "result-fail"
	},
	"relTime":     relTime,
	"fmtDuration": fmtDuration,
}

// Server is the read-only web UI server.
type Server struct {
	store       *pipeline.Store
	db          *db.DB // nil when run history is not configured
	metricsPath string
	logger      *slog.Logger

	dashboardTmpl *template.Template
	runTmpl       *template.Template
}

// NewServer creates a Server with parsed templates. database may be nil.
// metricsPath is the evaluation stage's metric file.
func NewServer(store *pipeline.Store, database *db.DB, metricsPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:         store,
		db:            database,
		metricsPath:   metricsPath,
		logger:        logger.With("component", "web"),
		dashboardTmpl: mustParseTmpl(baseTmpl, dashboardTmpl),
		runTmpl:       mustParseTmpl(baseTmpl, runTmpl),
	}
}

func mustParseTmpl(sources ...string) *template.Template {
	t := template.New("").Funcs(funcMap)
	for _, src := range sources {
		t = template.Must(t.Parse(src))
	}
	return t
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			s.handleDashboard(w, r)
		case strings.HasPrefix(r.URL.Path, "/run/"):
			s.routeRun(w, r, strings.TrimPrefix(r.URL.Path, "/run/"), s.handleRunDetail)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/api/runs", s.handleAPIRuns)
	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		s.routeRun(w, r, strings.TrimPrefix(r.URL.Path, "/api/runs/"), s.handleAPIRun)
	})
	mux.HandleFunc("/api/metrics", s.handleAPIMetrics)
	return mux
}

// Start listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mlfactory UI listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// routeRun validates the run id path segment and dispatches to h.
func (s *Server) routeRun(w http.ResponseWriter, r *http.Request, rest string, h func(http.ResponseWriter, *http.Request, string)) {
	id := strings.Trim(rest, "/")
	if pipeline.ValidRunID(id) != nil {
		http.NotFound(w, r)
		return
	}
	h(w, r, id)
}
