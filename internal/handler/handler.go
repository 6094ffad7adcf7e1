// Package handler exposes the tutoring service as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/S0tham/Sofida/internal/exercise"
	"github.com/S0tham/Sofida/internal/i18n"
	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/progress"
	"github.com/S0tham/Sofida/internal/session"
	"github.com/S0tham/Sofida/internal/speech"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	manager  *session.Manager
	progress *progress.Tracker
	stt      speech.Transcriber
	tts      speech.Synthesizer
}

// Option configures a Handler.
type Option func(*Handler)

// WithProgress enables the progress endpoint.
func WithProgress(t *progress.Tracker) Option {
	return func(h *Handler) { h.progress = t }
}

// WithSpeech enables the voice endpoint.
func WithSpeech(stt speech.Transcriber, tts speech.Synthesizer) Option {
	return func(h *Handler) {
		h.stt = stt
		h.tts = tts
	}
}

// New creates a Handler around the session manager.
func New(m *session.Manager, opts ...Option) *Handler {
	h := &Handler{manager: m}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.handleCreateSession)
		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleEndSession)
			r.Put("/config", h.handleUpdateConfig)
			r.Put("/tutor", h.handleSetTutor)
			r.Post("/chat", h.handleChat)
			r.Post("/exercise", h.handleRequestExercise)
			r.Post("/answer", h.handleSubmitAnswer)
			r.Post("/voice", h.handleVoice)
			r.Get("/progress", h.handleSessionProgress)
		})
		r.Get("/progress", h.handleProgress)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps service errors to status codes and localized messages.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var genErr *exercise.GenerationError
	var transport *llm.TransportError
	var timeout *llm.TimeoutError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: i18n.T(ctx, "error.session_not_found")})
	case errors.Is(err, session.ErrNoActiveExercise):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: i18n.T(ctx, "error.no_active_exercise")})
	case errors.Is(err, session.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: i18n.T(ctx, "error.empty_message")})
	case errors.Is(err, session.ErrUnknownTutor):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: i18n.T(ctx, "error.unknown_tutor")})
	case errors.As(err, &genErr):
		slog.Error("exercise generation failed", "reason", genErr.Reason)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: i18n.T(ctx, "error.generation_failed")})
	case errors.As(err, &timeout), errors.As(err, &transport):
		slog.Error("llm backend unavailable", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: i18n.T(ctx, "error.llm_unavailable")})
	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: i18n.T(ctx, "error.internal")})
	}
}

type createSessionRequest struct {
	Tutor  string        `json:"tutor"`
	Config *model.Config `json:"config"`
}

type createSessionResponse struct {
	SessionID string             `json:"session_id"`
	State     *model.PublicState `json:"state"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
			return
		}
	}

	cfg := model.Config{}
	if req.Config != nil {
		cfg = *req.Config
	}

	s, err := h.manager.CreateSession(r.Context(), req.Tutor, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: s.ID,
		State:     s.PublicState(),
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.manager.State(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.EndSession(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg model.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := h.manager.UpdateConfig(chi.URLParam(r, "sessionID"), cfg); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTutorRequest struct {
	Tutor string `json:"tutor"`
}

func (h *Handler) handleSetTutor(w http.ResponseWriter, r *http.Request) {
	var req setTutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := h.manager.SetTutor(chi.URLParam(r, "sessionID"), req.Tutor); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string             `json:"reply"`
	State *model.PublicState `json:"state"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	id := chi.URLParam(r, "sessionID")
	reply, err := h.manager.Chat(r.Context(), id, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, State: h.stateOf(id)})
}

type exerciseResponse struct {
	Exercise *model.Exercise    `json:"exercise"`
	State    *model.PublicState `json:"state"`
}

func (h *Handler) handleRequestExercise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	ex, err := h.manager.RequestExercise(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exerciseResponse{Exercise: ex, State: h.stateOf(id)})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if req.Answer == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: i18n.T(r.Context(), "error.empty_answer")})
		return
	}

	id := chi.URLParam(r, "sessionID")
	outcome, err := h.manager.SubmitAnswer(r.Context(), id, req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{AnswerOutcome: outcome, State: h.stateOf(id)})
}

type answerResponse struct {
	*session.AnswerOutcome
	State *model.PublicState `json:"state"`
}

// stateOf returns the public snapshot for id, or nil when the session is
// gone. Callers attach it to responses after a successful operation, so a
// missing session here is not an error worth surfacing.
func (h *Handler) stateOf(id string) *model.PublicState {
	state, err := h.manager.State(id)
	if err != nil {
		return nil
	}
	return state
}

type progressResponse struct {
	Stats     *progress.Stats     `json:"stats"`
	WeakSpots []progress.WeakSpot `json:"weak_spots"`
}

// handleProgress reports stats across all sessions.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	h.writeProgress(w, r, "")
}

// handleSessionProgress reports stats for one live session.
func (h *Handler) handleSessionProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := h.manager.Get(id); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeProgress(w, r, id)
}

func (h *Handler) writeProgress(w http.ResponseWriter, r *http.Request, sessionID string) {
	if h.progress == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "progress tracking disabled"})
		return
	}

	stats, err := h.progress.Stats(sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	spots, err := h.progress.WeakSpots(sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if spots == nil {
		spots = []progress.WeakSpot{}
	}
	writeJSON(w, http.StatusOK, progressResponse{Stats: stats, WeakSpots: spots})
}
