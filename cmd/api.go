package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/domain-resolver/internal/batch"
	"github.com/sells-group/domain-resolver/internal/model"
	"github.com/sells-group/domain-resolver/internal/stage"
	"github.com/sells-group/domain-resolver/internal/store"
)

const maxBodyBytes = 4 << 20

// apiLimits bounds the work a single server accepts.
type apiLimits struct {
	MaxConcurrent int
	MaxBatchSize  int
	BatchWorkers  int
	HighBar       float64
}

// api serves resolutions over HTTP.
type api struct {
	resolver batch.Resolver
	guard    *stage.Guard
	store    store.Store
	limits   apiLimits
	inflight *semaphore.Weighted
}

func newAPI(res batch.Resolver, guard *stage.Guard, st store.Store, limits apiLimits) *api {
	if limits.MaxConcurrent < 1 {
		limits.MaxConcurrent = 10
	}
	if limits.MaxBatchSize < 1 {
		limits.MaxBatchSize = 500
	}
	return &api{
		resolver: res,
		guard:    guard,
		store:    st,
		limits:   limits,
		inflight: semaphore.NewWeighted(int64(limits.MaxConcurrent)),
	}
}

func (a *api) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", a.resolve)
		r.Post("/batch", a.resolveBatch)
		r.Get("/review", a.review)
	})
	return r
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"breakers": a.guard.States(),
	})
}

func (a *api) resolve(w http.ResponseWriter, r *http.Request) {
	var q model.CompanyQuery
	if err := decodeBody(w, r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !q.Valid() {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if !a.inflight.TryAcquire(1) {
		writeError(w, http.StatusTooManyRequests, "too many concurrent resolutions")
		return
	}
	defer a.inflight.Release(1)

	res := a.resolver.Resolve(r.Context(), q)
	if a.store != nil && batch.Cacheable(&res) {
		if err := a.store.SaveResult(r.Context(), res); err != nil {
			zap.L().Warn("api: save result failed", zap.String("company", q.Name), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	Companies []model.CompanyQuery `json:"companies"`
	Refresh   bool                 `json:"refresh"`
}

type batchResponse struct {
	RunID    string                   `json:"run_id,omitempty"`
	Summary  batch.Summary            `json:"summary"`
	Cached   int                      `json:"cached"`
	Duration string                   `json:"duration"`
	Results  []model.ResolutionResult `json:"results"`
}

func (a *api) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch {
	case len(req.Companies) == 0:
		writeError(w, http.StatusBadRequest, "companies is required")
		return
	case len(req.Companies) > a.limits.MaxBatchSize:
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d companies per batch", a.limits.MaxBatchSize))
		return
	}
	for i, q := range req.Companies {
		if !q.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("companies[%d]: name is required", i))
			return
		}
	}

	if !a.inflight.TryAcquire(1) {
		writeError(w, http.StatusTooManyRequests, "too many concurrent resolutions")
		return
	}
	defer a.inflight.Release(1)

	opts := []batch.Option{
		batch.WithWorkers(a.limits.BatchWorkers),
		batch.WithRefresh(req.Refresh),
		batch.WithHighConfidence(a.limits.HighBar),
	}
	if a.store != nil {
		opts = append(opts, batch.WithStore(a.store))
	}

	report, err := batch.NewRunner(a.resolver, opts...).Run(r.Context(), req.Companies)
	if err != nil {
		zap.L().Warn("api: batch interrupted", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "batch interrupted")
		return
	}

	results := report.Results
	if results == nil {
		results = []model.ResolutionResult{}
	}
	writeJSON(w, http.StatusOK, batchResponse{
		RunID:    report.RunID,
		Summary:  report.Summary,
		Cached:   report.Cached,
		Duration: report.Duration.Round(time.Millisecond).String(),
		Results:  results,
	})
}

func (a *api) review(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusNotFound, "result store is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := a.store.ListReview(r.Context(), limit)
	if err != nil {
		zap.L().Error("api: list review failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list review failed")
		return
	}
	if results == nil {
		results = []model.ResolutionResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
