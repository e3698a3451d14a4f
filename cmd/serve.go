package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/projection"
	"github.com/sells-group/model-inputs-cli/internal/source"
	"github.com/sells-group/model-inputs-cli/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored model inputs and projections over a read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if port != 0 {
			cfg.Server.Port = port
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r, err := newRunner(cfg, st, false)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      newRouter(st, r, cfg.Server.CORSAllowOrigins),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// projector computes projections for a season. *pipeline.Runner implements it.
type projector interface {
	Project(ctx context.Context, season int) ([]model.PlayerProjection, error)
}

// documentFields maps API field names to stored document columns.
var documentFields = map[string]func(*model.ModelInputs) string{
	"depth-chart":     func(m *model.ModelInputs) string { return m.DepthChartJSON },
	"usage-priors":    func(m *model.ModelInputs) string { return m.UsagePriorsJSON },
	"team-efficiency": func(m *model.ModelInputs) string { return m.TeamEfficiencyJSON },
	"pace-estimates":  func(m *model.ModelInputs) string { return m.PaceEstimatesJSON },
	"opponent-grades": func(m *model.ModelInputs) string { return m.OpponentGradesJSON },
}

type apiHandler struct {
	store store.Store
	proj  projector
}

// newRouter builds the API router. origins configures CORS.
func newRouter(st store.Store, proj projector, origins []string) http.Handler {
	h := &apiHandler{store: st, proj: proj}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/v1/seasons/{season}", func(r chi.Router) {
		r.Get("/projections", h.projections)
		r.Get("/{field}", h.field)
	})
	return r
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (h *apiHandler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) field(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "field")
	get, ok := documentFields[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown field %q", name))
		return
	}

	doc, err := h.store.GetModelInputs(r.Context(), season)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no model inputs for season %d", season))
		return
	}
	if err != nil {
		zap.L().Error("read model inputs", zap.Int("season", season), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	raw := get(doc)
	if raw == "" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s not built for season %d", name, season))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", doc.UpdatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(raw))
}

func (h *apiHandler) projections(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	out, err := h.proj.Project(r.Context(), season)
	if eris.Is(err, source.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no players extract for season %d", season))
		return
	}
	if err != nil {
		zap.L().Error("project players", zap.Int("season", season), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out = projection.Filter(out, r.URL.Query().Get("position"), limit)
	if out == nil {
		out = []model.PlayerProjection{}
	}
	writeJSON(w, http.StatusOK, out)
}

// seasonParam parses the {season} path segment, writing a 400 on failure.
func seasonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil || season <= 0 {
		writeError(w, http.StatusBadRequest, "season must be a positive integer")
		return 0, false
	}
	return season, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
