package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/S0tham/Sofida/internal/checker"
	"github.com/S0tham/Sofida/internal/exercise"
	"github.com/S0tham/Sofida/internal/feedback"
	"github.com/S0tham/Sofida/internal/i18n"
	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/tutor"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoActiveExercise = errors.New("no active exercise")
	ErrEmptyMessage     = errors.New("empty message")
	ErrUnknownTutor     = errors.New("unknown tutor")
)

// Recorder receives every graded attempt. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(sessionID string, ex *model.Exercise, res *model.CheckResult) error
}

// AnswerOutcome bundles everything produced by one answer submission.
type AnswerOutcome struct {
	Check    *model.CheckResult    `json:"check_result"`
	Feedback *model.FeedbackRecord `json:"feedback"`
	Summary  string                `json:"summary_message"`
}

// Manager owns the session store and drives the exercise, checking and
// feedback pipeline for each session.
type Manager struct {
	store         Store
	llm           llm.Completer
	generator     *exercise.Generator
	checker       *checker.Checker
	feedback      *feedback.Generator
	recorder      Recorder
	historyWindow int
}

// Option configures a Manager.
type Option func(*Manager)

// WithHistoryWindow sets how many recent chat turns feed each prompt.
func WithHistoryWindow(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.historyWindow = n
		}
	}
}

// WithRecorder attaches a progress recorder. Without one, attempts are
// simply not tracked.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// NewManager wires a Manager around one completion backend and a store.
func NewManager(store Store, c llm.Completer, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		llm:           c,
		generator:     exercise.NewGenerator(c),
		checker:       checker.New(c),
		feedback:      feedback.NewGenerator(c),
		historyWindow: defaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession starts a session with the given tutor and config. The
// opening greeting comes from the model; if that call fails the session is
// still created, just without a greeting.
func (m *Manager) CreateSession(ctx context.Context, tutorKey string, cfg model.Config) (*Session, error) {
	p, ok := tutor.ByKey(tutorKey)
	if !ok {
		p = tutor.Default()
	}
	if cfg == (model.Config{}) {
		cfg = model.DefaultConfig()
	}

	s := newSession(uuid.NewString(), p, cfg)

	greeting, err := m.llm.Complete(ctx, buildGreetingPrompt(p), 0.6)
	if err != nil {
		slog.Warn("greeting skipped", "session_id", s.ID, "error", err)
	} else {
		s.appendTurn(model.RoleTutor, strings.TrimSpace(greeting))
	}

	m.store.Put(s)
	slog.Info("session created", "session_id", s.ID, "tutor", p.Name)
	return s, nil
}

// Get returns the live session for id.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// State returns the public snapshot of a session.
func (m *Manager) State(id string) (*model.PublicState, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return s.PublicState(), nil
}

// EndSession removes a session. Ending an unknown session is an error so
// clients learn about stale ids.
func (m *Manager) EndSession(id string) error {
	if _, ok := m.store.Get(id); !ok {
		return ErrSessionNotFound
	}
	m.store.Delete(id)
	slog.Info("session ended", "session_id", id)
	return nil
}

// SetTutor swaps the session's tutor personality mid-session. History and
// the active exercise stay as they are; only new prompts pick up the new
// personality. Unlike CreateSession, an unknown key is an error here so a
// typo does not silently reset the tutor.
func (m *Manager) SetTutor(id, tutorKey string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	p, ok := tutor.ByKey(tutorKey)
	if !ok {
		return ErrUnknownTutor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tutor = p
	slog.Info("tutor swapped", "session_id", id, "tutor", p.Name)
	return nil
}

// UpdateConfig replaces the session's exercise configuration.
func (m *Manager) UpdateConfig(id string, cfg model.Config) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Config = cfg
	return nil
}

// RequestExercise generates a fresh exercise from the session config and
// makes it the active one.
func (m *Manager) RequestExercise(ctx context.Context, id string) (*model.Exercise, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := m.generator.Generate(ctx, exercise.Request{
		Skill:      s.Config.Skill,
		Topic:      s.Config.Topic,
		Theme:      s.Config.Theme,
		Difficulty: s.Config.Difficulty,
	})
	if err != nil {
		return nil, err
	}

	s.Exercises[ex.ID] = &ExerciseState{Exercise: ex}
	s.CurrentExerciseID = ex.ID
	slog.Info("exercise issued", "session_id", s.ID, "exercise_id", ex.ID, "type", ex.Type)
	return ex, nil
}

// SubmitAnswer grades the answer to the active exercise, generates tutor
// feedback and appends a short summary turn to the chat history.
func (m *Manager) SubmitAnswer(ctx context.Context, id, answer string) (*AnswerOutcome, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	exState := s.current()
	if exState == nil {
		return nil, ErrNoActiveExercise
	}

	check, err := m.checker.Check(ctx, exState.Exercise, answer)
	if err != nil {
		return nil, fmt.Errorf("check answer: %w", err)
	}

	fb, err := m.feedback.Generate(ctx, exState.Exercise, answer, check, s.Tutor)
	if err != nil {
		return nil, err
	}

	exState.LastAnswer = answer
	exState.LastCheck = check
	exState.LastFeedback = fb

	if m.recorder != nil {
		if err := m.recorder.Record(s.ID, exState.Exercise, check); err != nil {
			slog.Warn("attempt not recorded", "session_id", s.ID, "error", err)
		}
	}

	summary := i18n.Td(ctx, "session.answer_checked", map[string]any{
		"ExerciseID": exState.Exercise.ID,
		"Result":     string(check.Result),
		"Score":      fmt.Sprintf("%.2f", check.Score),
	})
	s.appendTurn(model.RoleTutor, summary)

	slog.Info("answer graded",
		"session_id", s.ID,
		"exercise_id", exState.Exercise.ID,
		"result", check.Result,
		"score", check.Score)

	return &AnswerOutcome{Check: check, Feedback: fb, Summary: summary}, nil
}

// Chat handles a free-form learner message. Messages containing an
// explanation keyword while an exercise is active are answered with the
// exercise in scope; everything else is general chat. A failed model call
// degrades to an apology so the conversation survives.
func (m *Manager) Chat(ctx context.Context, id, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	s, err := m.Get(id)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendTurn(model.RoleUser, text)

	var prompt string
	if exState := s.current(); exState != nil && looksLikeExplanationQuestion(text) {
		prompt = buildExplanationPrompt(s.Tutor, s.History, m.historyWindow, exState, text)
	} else {
		prompt = buildGeneralChatPrompt(s.Tutor, s.History, m.historyWindow, text)
	}

	answer, err := m.llm.Complete(ctx, prompt, 0.7)
	if err != nil {
		slog.Warn("chat reply failed", "session_id", s.ID, "error", err)
		answer = i18n.T(ctx, "session.chat_unavailable")
	} else {
		answer = strings.TrimSpace(answer)
	}

	s.appendTurn(model.RoleTutor, answer)
	return answer, nil
}
