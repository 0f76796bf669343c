package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/learneasy/internal/config"
	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/felixgeelhaar/learneasy/internal/domain"
	"github.com/felixgeelhaar/learneasy/internal/session"
)

// Version is reported by /v1/status
const Version = "0.1.0"

// Server represents the LearnEasy daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	limiter ratelimit.RateLimiter

	// Services
	services       *Services
	content        *content.Registry
	sessionService *session.Service
	startedAt      time.Time
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config   *config.LocalConfig
	Services *Services
}

// NewServer creates the HTTP layer over already wired services. The
// server takes ownership of Services and closes them on Shutdown.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("server needs both config and services")
	}

	s := &Server{
		cfg:            cfg.Config,
		router:         http.NewServeMux(),
		services:       cfg.Services,
		content:        cfg.Services.Content,
		sessionService: cfg.Services.Sessions,
		startedAt:      time.Now(),
	}

	// Setup routes
	s.setupRoutes()

	// Create HTTP server with middleware chain
	var handler http.Handler = s.router
	if rl := cfg.Config.RateLimit; rl.Enabled {
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     rl.Rate,
			Burst:    rl.Burst,
			Interval: time.Duration(rl.IntervalSeconds) * time.Second,
		})
		handler = rateLimitMiddleware(s.limiter, handler)
	}
	handler = correlationIDMiddleware(recoveryMiddleware(loggingMiddleware(handler)))

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Content
	s.router.HandleFunc("GET /v1/lessons", s.handleListLessons)
	s.router.HandleFunc("GET /v1/lessons/{id}", s.handleGetLesson)
	s.router.HandleFunc("GET /v1/challenges", s.handleListChallenges)
	s.router.HandleFunc("GET /v1/challenges/{id}", s.handleGetChallenge)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	// Lesson sessions
	s.router.HandleFunc("POST /v1/sessions/{id}/lesson", s.handleNavigate)
	s.router.HandleFunc("PUT /v1/sessions/{id}/selection", s.handleSelect)
	s.router.HandleFunc("POST /v1/sessions/{id}/quiz", s.handleSubmitQuiz)

	// Challenge sessions
	s.router.HandleFunc("POST /v1/sessions/{id}/run", s.handleRun)
	s.router.HandleFunc("POST /v1/sessions/{id}/submit", s.handleSubmit)
	s.router.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)
	s.router.HandleFunc("PUT /v1/sessions/{id}/language", s.handleSetLanguage)
	s.router.HandleFunc("PUT /v1/sessions/{id}/code", s.handleUpdateCode)
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("listening", "addr", s.server.Addr, "rate_limited", s.limiter != nil)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)

	if s.limiter != nil {
		if cerr := s.limiter.Close(); cerr != nil {
			slog.Warn("failed to close rate limiter", "error", cerr)
		}
	}
	if cerr := s.services.Close(); cerr != nil {
		slog.Warn("failed to close session store", "error", cerr)
	}

	return err
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessionService.List(r.Context())
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list sessions", err)
		return
	}

	info := s.services.Info()
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":           "running",
		"version":          Version,
		"uptime_seconds":   int(time.Since(s.startedAt).Seconds()),
		"content":          info.Content,
		"content_source":   info.ContentSource,
		"sessions":         len(ids),
		"session_store":    info.SessionStore,
		"pass_probability": info.PassProbability,
		"languages":        info.Languages,
	})
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	filter := content.Filter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("q"),
	}

	lessons := s.content.ListLessons(filter)
	if lessons == nil {
		lessons = []domain.LessonSummary{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"lessons":    lessons,
		"categories": append([]string{content.AllCategories}, s.content.Categories()...),
		"count":      len(lessons),
	})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	lesson, err := s.content.GetLesson(id)
	if err != nil {
		s.serviceError(w, "lesson not found", err)
		return
	}
	neighbors, err := s.content.Neighbors(id)
	if err != nil {
		s.serviceError(w, "lesson not found", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"lesson":     lesson,
		"navigation": neighbors,
	})
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges := s.content.ListChallenges()

	summaries := make([]map[string]interface{}, 0, len(challenges))
	for _, c := range challenges {
		summaries = append(summaries, map[string]interface{}{
			"id":         c.ID,
			"title":      c.Title,
			"test_cases": len(c.TestCases),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"challenges": summaries,
		"count":      len(summaries),
	})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := s.content.GetChallenge(r.PathValue("id"))
	if err != nil {
		s.serviceError(w, "challenge not found", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, challenge)
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID    string `json:"lesson_id,omitempty"`
		ChallengeID string `json:"challenge_id,omitempty"`
		Language    string `json:"language,omitempty"`
	}

	if err := decodeBody(r, &req, false); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var (
		sess *session.Session
		err  error
	)
	switch {
	case req.LessonID != "" && req.ChallengeID != "":
		s.jsonError(w, http.StatusBadRequest, "lesson_id and challenge_id are mutually exclusive", nil)
		return
	case req.LessonID != "":
		sess, err = s.sessionService.OpenLesson(r.Context(), req.LessonID)
	case req.ChallengeID != "":
		sess, err = s.sessionService.OpenChallenge(r.Context(), req.ChallengeID, req.Language)
	default:
		s.jsonError(w, http.StatusBadRequest, "lesson_id or challenge_id is required", nil)
		return
	}
	if err != nil {
		s.serviceError(w, "failed to create session", err)
		return
	}

	s.viewResponse(w, r, http.StatusCreated, sess.ID)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.viewResponse(w, r, http.StatusOK, r.PathValue("id"))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessionService.Close(r.Context(), id); err != nil {
		s.serviceError(w, "failed to delete session", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID string `json:"lesson_id"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.LessonID == "" {
		s.jsonError(w, http.StatusBadRequest, "lesson_id is required", nil)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.NavigateLesson(r.Context(), id, req.LessonID); err != nil {
		s.serviceError(w, "failed to navigate", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionID string `json:"option_id"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.SelectOption(r.Context(), id, req.OptionID); err != nil {
		s.serviceError(w, "failed to select option", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	// An option_id in the body selects before grading.
	var req struct {
		OptionID string `json:"option_id,omitempty"`
	}
	if err := decodeBody(r, &req, true); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id := r.PathValue("id")
	if req.OptionID != "" {
		if _, err := s.sessionService.SelectOption(r.Context(), id, req.OptionID); err != nil {
			s.serviceError(w, "failed to select option", err)
			return
		}
	}

	_, result, err := s.sessionService.SubmitQuiz(r.Context(), id)
	if err != nil {
		s.serviceError(w, "failed to submit quiz", err)
		return
	}

	view, err := s.sessionService.View(r.Context(), id)
	if err != nil {
		s.serviceError(w, "failed to load session", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"result": map[string]interface{}{
			"outcome":        result.Outcome,
			"correct":        result.Correct(),
			"progress_delta": result.ProgressDelta,
			"message":        result.Message(),
		},
		"view": view,
	})
}

type evalBody struct {
	Code *string `json:"code,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req evalBody
	if err := decodeBody(r, &req, true); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.RunChallenge(r.Context(), id, session.EvalRequest{Code: req.Code}); err != nil {
		s.serviceError(w, "failed to run code", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req evalBody
	if err := decodeBody(r, &req, true); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.SubmitChallenge(r.Context(), id, session.EvalRequest{Code: req.Code}); err != nil {
		s.serviceError(w, "failed to submit code", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KeepResults bool `json:"keep_results,omitempty"`
	}
	if err := decodeBody(r, &req, true); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.ResetChallengeCode(r.Context(), id, session.ResetOptions{KeepResults: req.KeepResults}); err != nil {
		s.serviceError(w, "failed to reset code", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.SetLanguage(r.Context(), id, req.Language); err != nil {
		s.serviceError(w, "failed to set language", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code *string `json:"code"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Code == nil {
		s.jsonError(w, http.StatusBadRequest, "code is required", nil)
		return
	}

	id := r.PathValue("id")
	if _, err := s.sessionService.UpdateCode(r.Context(), id, *req.Code); err != nil {
		s.serviceError(w, "failed to update code", err)
		return
	}
	s.viewResponse(w, r, http.StatusOK, id)
}

// Helper methods

func (s *Server) viewResponse(w http.ResponseWriter, r *http.Request, status int, id string) {
	view, err := s.sessionService.View(r.Context(), id)
	if err != nil {
		s.serviceError(w, "failed to load session", err)
		return
	}
	s.jsonResponse(w, status, view)
}

// serviceError maps an engine error onto an HTTP status
func (s *Server) serviceError(w http.ResponseWriter, message string, err error) {
	s.jsonError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrWrongKind):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrInvalidSelection),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedLanguage),
		errors.Is(err, domain.ErrNoQuiz):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body into v. When optional is set an
// empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
