package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/tutor"
)

func TestMemoryStoreBasics(t *testing.T) {
	store := NewMemoryStore()
	s := newSession("s1", tutor.Default(), model.DefaultConfig())

	if _, ok := store.Get("s1"); ok {
		t.Fatal("empty store returned a session")
	}

	store.Put(s)
	got, ok := store.Get("s1")
	if !ok || got.ID != "s1" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d", store.Len())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Error("deleted session still present")
	}
	// deleting again is a no-op
	store.Delete("s1")
}

func TestMemoryStoreConcurrent(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n)
			store.Put(newSession(id, tutor.Default(), model.DefaultConfig()))
			if _, ok := store.Get(id); !ok {
				t.Errorf("session %s missing after Put", id)
			}
			if n%2 == 0 {
				store.Delete(id)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 25 {
		t.Errorf("Len = %d, want 25", store.Len())
	}
}

func TestSummarizeHistoryWindow(t *testing.T) {
	var history []model.ChatTurn
	for i := 0; i < 10; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleTutor
		}
		history = append(history, model.ChatTurn{Role: role, Text: fmt.Sprintf("bericht %d", i)})
	}

	got := summarizeHistory(history, 6)
	if want := "Leerling: bericht 4"; got[:len(want)] != want {
		t.Errorf("summary starts with %q, want %q", got[:len(want)], want)
	}
	for _, absent := range []string{"bericht 0", "bericht 3"} {
		if strings.Contains(got, absent) {
			t.Errorf("summary includes %q, outside the window", absent)
		}
	}
	if !strings.Contains(got, "Tutor: bericht 9") {
		t.Error("summary missing the newest turn")
	}
}

func TestSummarizeHistoryEmpty(t *testing.T) {
	if got := summarizeHistory(nil, 6); got != "Nog geen eerdere chatgeschiedenis." {
		t.Errorf("empty summary = %q", got)
	}
}

func TestTruncateRunesKeepsMultibyteIntact(t *testing.T) {
	long := strings.Repeat("privé café ", 50)
	got := truncateRunes(long, 200)
	if utf8.RuneCountInString(got) != 200 {
		t.Errorf("rune count = %d, want 200", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a multibyte sequence")
	}
	if got := truncateRunes("kort", 200); got != "kort" {
		t.Errorf("short input changed: %q", got)
	}
}

func TestDescribeExerciseTruncatesPassageByRune(t *testing.T) {
	ex := &model.Exercise{
		Type: model.TypeReading,
		Content: model.Content{
			Passage:  strings.Repeat("één leerling oefent hier geduldig ", 20),
			Question: "Wat doet de leerling?",
			Options:  []string{"oefenen", "slapen"},
		},
	}
	got := describeExercise(ex)
	if !utf8.ValidString(got) {
		t.Error("description contains a broken multibyte sequence")
	}
	if !strings.Contains(got, "...") {
		t.Error("long passage not truncated")
	}
}

func TestLooksLikeExplanationQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Waarom is dit goed?", true},
		{"Ik snap niet wat hier gebeurt", true},
		{"Kun je dat uitleggen? Graag uitleg!", true},
		{"LEG UIT alsjeblieft", true},
		{"Hoe gaat het met jou?", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := looksLikeExplanationQuestion(tt.in); got != tt.want {
			t.Errorf("looksLikeExplanationQuestion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

