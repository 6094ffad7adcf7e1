package i18n

import (
	"context"
	"strings"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateDutch(t *testing.T) {
	ctx := initLang(t, "nl")

	got := T(ctx, "error.session_not_found")
	if got != "Sessie niet gevonden." {
		t.Errorf("T(error.session_not_found) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "error.session_not_found")
	if got != "Session not found." {
		t.Errorf("T(error.session_not_found) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "nl")

	got := Td(ctx, "session.answer_checked", map[string]any{
		"ExerciseID": "ex_ab12cd34",
		"Result":     "correct",
		"Score":      "1.00",
	})
	want := "Ik heb je antwoord nagekeken op oefening ex_ab12cd34. Resultaat: correct (score 1.00)."
	if got != want {
		t.Errorf("Td(session.answer_checked) = %q, want %q", got, want)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "nl")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}

func TestDefaultLocalizerWithoutContext(t *testing.T) {
	if err := Init("nl"); err != nil {
		t.Fatal(err)
	}

	got := T(context.Background(), "session.chat_unavailable")
	if !strings.Contains(got, "taalmodule") {
		t.Errorf("default language reply = %q, want Dutch", got)
	}
}
