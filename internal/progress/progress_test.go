package progress

import (
	"testing"

	"github.com/S0tham/Sofida/internal/model"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func record(t *testing.T, tr *Tracker, topic string, result model.Result) {
	t.Helper()
	ex := &model.Exercise{
		ID:         "ex_test",
		Type:       model.TypeGapFill,
		Skill:      model.SkillGrammar,
		Topic:      topic,
		Difficulty: model.DifficultyMedium,
	}
	score := 0.0
	if result == model.ResultCorrect {
		score = 1.0
	}
	res := &model.CheckResult{ExerciseID: ex.ID, Result: result, Score: score}
	if err := tr.Record("session-1", ex, res); err != nil {
		t.Fatalf("Record: %v", err)
	}
}

func TestStatsEmpty(t *testing.T) {
	tr := newTestTracker(t)
	s, err := tr.Stats("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 0 || s.Correct != 0 || s.Percentage != 0 {
		t.Errorf("stats = %+v, want zeroes", s)
	}
}

func TestStatsPercentage(t *testing.T) {
	tr := newTestTracker(t)
	record(t, tr, "Present Perfect", model.ResultCorrect)
	record(t, tr, "Present Perfect", model.ResultCorrect)
	record(t, tr, "Past Simple", model.ResultIncorrect)

	s, err := tr.Stats("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.Correct != 2 {
		t.Errorf("stats = %+v", s)
	}
	if s.Percentage != 66.7 {
		t.Errorf("percentage = %v, want 66.7", s.Percentage)
	}
}

func TestWeakSpotsTopThree(t *testing.T) {
	tr := newTestTracker(t)
	for i := 0; i < 4; i++ {
		record(t, tr, "Past Simple", model.ResultIncorrect)
	}
	for i := 0; i < 3; i++ {
		record(t, tr, "Present Perfect", model.ResultAlmost)
	}
	record(t, tr, "Conditionals", model.ResultIncorrect)
	record(t, tr, "Articles", model.ResultIncorrect)
	record(t, tr, "Articles", model.ResultIncorrect)
	record(t, tr, "Future Tense", model.ResultCorrect)

	spots, err := tr.WeakSpots("")
	if err != nil {
		t.Fatal(err)
	}
	if len(spots) != 3 {
		t.Fatalf("weak spots = %+v, want 3", spots)
	}
	if spots[0].Topic != "Past Simple" || spots[0].Errors != 4 {
		t.Errorf("spots[0] = %+v", spots[0])
	}
	if spots[1].Topic != "Present Perfect" || spots[1].Errors != 3 {
		t.Errorf("spots[1] = %+v", spots[1])
	}
	if spots[2].Topic != "Articles" || spots[2].Errors != 2 {
		t.Errorf("spots[2] = %+v", spots[2])
	}
	for _, s := range spots {
		if s.Topic == "Future Tense" {
			t.Error("correct-only topic listed as weak spot")
		}
	}
}

func TestWeakSpotsEmpty(t *testing.T) {
	tr := newTestTracker(t)
	record(t, tr, "Present Perfect", model.ResultCorrect)

	spots, err := tr.WeakSpots("")
	if err != nil {
		t.Fatal(err)
	}
	if len(spots) != 0 {
		t.Errorf("weak spots = %+v, want none", spots)
	}
}

func TestStatsPerSession(t *testing.T) {
	tr := newTestTracker(t)
	record(t, tr, "Present Perfect", model.ResultCorrect)
	record(t, tr, "Past Simple", model.ResultIncorrect)

	other := &model.Exercise{
		ID:         "ex_other",
		Type:       model.TypeGapFill,
		Skill:      model.SkillGrammar,
		Topic:      "Conditionals",
		Difficulty: model.DifficultyMedium,
	}
	res := &model.CheckResult{ExerciseID: other.ID, Result: model.ResultIncorrect}
	if err := tr.Record("session-2", other, res); err != nil {
		t.Fatalf("Record: %v", err)
	}

	s, err := tr.Stats("session-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 2 || s.Correct != 1 {
		t.Errorf("session-1 stats = %+v", s)
	}

	spots, err := tr.WeakSpots("session-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(spots) != 1 || spots[0].Topic != "Past Simple" {
		t.Errorf("session-1 weak spots = %+v", spots)
	}

	all, err := tr.Stats("")
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 3 {
		t.Errorf("global total = %d, want 3", all.Total)
	}
}

func TestExportAll(t *testing.T) {
	tr := newTestTracker(t)
	record(t, tr, "Past Simple", model.ResultIncorrect)
	record(t, tr, "Present Perfect", model.ResultCorrect)

	attempts, err := tr.ExportAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
	if attempts[0].Topic != "Past Simple" || attempts[1].Topic != "Present Perfect" {
		t.Errorf("order = %q, %q", attempts[0].Topic, attempts[1].Topic)
	}
	if attempts[0].SessionID != "session-1" || attempts[0].Result != "incorrect" {
		t.Errorf("attempts[0] = %+v", attempts[0])
	}
	if attempts[0].CreatedAt.IsZero() {
		t.Error("createdAt not stored")
	}
}
