// Package api exposes the scoring engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/site-scout/internal/config"
	"github.com/sells-group/site-scout/internal/engine"
	"github.com/sells-group/site-scout/internal/insight"
	"github.com/sells-group/site-scout/internal/model"
	"github.com/sells-group/site-scout/internal/store"
)

// Scorer is the scoring capability the API serves.
type Scorer interface {
	Score(ctx context.Context, coord model.Coordinate, radiusMeters float64) (*model.ScoreResult, error)
}

// InsightGenerator produces assessments for score results.
type InsightGenerator interface {
	Generate(ctx context.Context, result model.ScoreResult) (insight.Insight, error)
}

// Server routes HTTP requests to the engine, insight generator, and run
// store.
type Server struct {
	scorer        Scorer
	insights      InsightGenerator
	runs          store.Store
	defaultRadius float64
	allowedOrigin []string
	log           *zap.Logger
}

// NewServer wires the API. runs and insights may be nil; the matching
// endpoints then report 503.
func NewServer(scorer Scorer, insights InsightGenerator, runs store.Store, cfg *config.Config) *Server {
	return &Server{
		scorer:        scorer,
		insights:      insights,
		runs:          runs,
		defaultRadius: cfg.Engine.DefaultRadiusMeters,
		allowedOrigin: cfg.Server.AllowedOrigins,
		log:           zap.L().Named("api"),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigin,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/score/insights", s.handleScoreInsights)
		r.Post("/insights", s.handleInsights)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
	return r
}

type scoreRequest struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	RadiusMeters *float64 `json:"radius_meters,omitempty"`
	Persist      bool     `json:"persist,omitempty"`
}

type scoreResponse struct {
	model.ScoreResult
	RunID   string `json:"run_id,omitempty"`
	Insight string `json:"insight,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	s.score(w, r, false)
}

func (s *Server) handleScoreInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insight generation not configured")
		return
	}
	s.score(w, r, true)
}

func (s *Server) score(w http.ResponseWriter, r *http.Request, withInsight bool) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	radius := s.defaultRadius
	if req.RadiusMeters != nil {
		radius = *req.RadiusMeters
	}

	result, err := s.scorer.Score(r.Context(), model.Coordinate{Lat: req.Latitude, Lon: req.Longitude}, radius)
	if err != nil {
		s.writeScoreError(w, err)
		return
	}

	resp := scoreResponse{ScoreResult: *result}

	if withInsight {
		ins, err := s.insights.Generate(r.Context(), *result)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "insight generation interrupted")
			return
		}
		resp.Insight = ins.Text
	}

	if req.Persist && s.runs != nil {
		run, err := s.runs.SaveRun(r.Context(), *result)
		if err != nil {
			// scoring succeeded; losing the audit row is not a client error
			s.log.Error("persist run failed", zap.Error(err))
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleInsights generates an assessment for scores the caller already
// holds, without re-running extraction.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insight generation not configured")
		return
	}

	var result model.ScoreResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result.City == "" {
		result.City = model.UnknownCity
	}

	ins, err := s.insights.Generate(r.Context(), result)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "insight generation interrupted")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"insight":   ins.Text,
		"generated": ins.Generated,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	filter := store.RunFilter{City: r.URL.Query().Get("city")}
	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		s.log.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []model.ScoreRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	run, err := s.runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// writeScoreError maps engine error types onto status codes: caller
// mistakes are 400, upstream outages are 503, anything else is 500.
func (s *Server) writeScoreError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsInvalidRadius(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case engine.IsDataUnavailable(err):
		s.log.Warn("feature source unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "feature source unavailable")
	case engine.IsConfiguration(err):
		s.log.Error("engine misconfigured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "engine misconfigured")
	default:
		// coordinate validation and the rest
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
