// Package session holds per-student conversation state and orchestrates
// the exercise, checking and feedback pipeline around it.
package session

import (
	"sync"
	"time"

	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/tutor"
)

// ExerciseState tracks one exercise inside a session together with the
// latest attempt against it.
type ExerciseState struct {
	Exercise     *model.Exercise
	LastAnswer   string
	LastCheck    *model.CheckResult
	LastFeedback *model.FeedbackRecord
}

// Session is the mutable state of one student conversation. All access
// goes through the manager, which holds mu for the duration of an
// operation; concurrent requests against the same session serialize.
type Session struct {
	mu sync.Mutex

	ID                string
	Tutor             tutor.Personality
	Config            model.Config
	History           []model.ChatTurn
	Exercises         map[string]*ExerciseState
	CurrentExerciseID string
	CreatedAt         time.Time
}

func newSession(id string, p tutor.Personality, cfg model.Config) *Session {
	return &Session{
		ID:        id,
		Tutor:     p,
		Config:    cfg,
		Exercises: make(map[string]*ExerciseState),
		CreatedAt: time.Now(),
	}
}

func (s *Session) current() *ExerciseState {
	if s.CurrentExerciseID == "" {
		return nil
	}
	return s.Exercises[s.CurrentExerciseID]
}

func (s *Session) appendTurn(role model.ChatRole, text string) {
	s.History = append(s.History, model.ChatTurn{Role: role, Text: text})
}

// PublicState snapshots the session for API callers. The chat history is
// copied so later turns cannot race a caller still serializing the result.
func (s *Session) PublicState() *model.PublicState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &model.PublicState{
		Tutor:             model.TutorInfo{Name: s.Tutor.Name},
		Config:            s.Config,
		ChatHistory:       append([]model.ChatTurn(nil), s.History...),
		CurrentExerciseID: s.CurrentExerciseID,
	}
	if cur := s.current(); cur != nil {
		state.CurrentExercise = cur.Exercise
		state.CurrentFeedback = cur.LastFeedback
	}
	return state
}
