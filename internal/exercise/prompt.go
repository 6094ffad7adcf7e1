package exercise

import (
	"fmt"
	"strings"

	"github.com/S0tham/Sofida/internal/model"
)

// difficultyPolicy maps a difficulty to guidance for the model, in Dutch
// because the tutor-facing prompts are Dutch throughout.
func difficultyPolicy(d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return "makkelijk: korte zinnen, hoogfrequente woorden, een duidelijk afleidbare oplossing"
	case model.DifficultyHard:
		return "moeilijk: langere zinnen, minder frequente woorden, subtiele afleiders"
	default:
		return "gemiddeld: normale zinslengte, gangbare woordenschat"
	}
}

// contentSchema returns the JSON fragments for content and answer_key that
// the model must fill in, per exercise type.
func contentSchema(t model.ExerciseType) (content, answerKey string) {
	switch t {
	case model.TypeMultipleChoice:
		return `{"question": "…", "options": ["…", "…", "…", "…"]}`,
			`{"correct_index": 0, "correct_option": "…"}`
	case model.TypeGapFill:
		return `{"sentence": "Zin met een ___ voor het ontbrekende woord."}`,
			`{"correct_answer": "…", "alternatives": ["…"]}`
	case model.TypeWriting:
		return `{"prompt": "…", "rubric": {"grammar": "…", "vocabulary": "…", "coherence": "…"}, "word_limit": {"min": 80, "max": 100}}`,
			`null`
	case model.TypeReading:
		return `{"passage": "…", "question": "…", "options": ["…", "…", "…", "…"]}`,
			`{"correct_index": 0, "correct_option": "…"}`
	}
	return "{}", "null"
}

func typeDescription(t model.ExerciseType) string {
	switch t {
	case model.TypeMultipleChoice:
		return "een meerkeuzevraag met precies vier opties waarvan er exact een goed is"
	case model.TypeGapFill:
		return "een invulzin waarin precies een woord of woordgroep ontbreekt, gemarkeerd met ___"
	case model.TypeWriting:
		return "een korte schrijfopdracht met een rubric en een woordlimiet"
	case model.TypeReading:
		return "een korte Engelse leestekst met een begripsvraag en vier opties"
	}
	return ""
}

// buildPrompt assembles the full generation prompt. The model answers with
// one JSON object and nothing else; all repair strategies downstream assume
// this shape.
func buildPrompt(req Request) string {
	content, answerKey := contentSchema(req.Type)
	theme := NormalizeTheme(req.Theme)

	var b strings.Builder
	b.WriteString("Je bent een docent Engels die oefeningen maakt voor Nederlandse leerlingen.\n\n")
	fmt.Fprintf(&b, "Maak %s.\n", typeDescription(req.Type))
	fmt.Fprintf(&b, "Onderwerp: %s\n", req.Topic)
	fmt.Fprintf(&b, "Thema voor de context: %s\n", theme)
	fmt.Fprintf(&b, "Niveau: %s\n\n", difficultyPolicy(req.Difficulty))
	b.WriteString("De oefening zelf is in het Engels, de instructies voor de leerling zijn in het Nederlands.\n\n")
	b.WriteString("Antwoord met ALLEEN een JSON-object in exact dit formaat, zonder toelichting en zonder markdown:\n")
	fmt.Fprintf(&b, `{
  "exercise_id": "ex_x",
  "type": %q,
  "topic": %q,
  "difficulty": %q,
  "instructions": "…",
  "content": %s,
  "answer_key": %s,
  "metadata": {"theme": %q, "explanation": "korte uitleg in het Nederlands waarom het antwoord goed is"}
}`, req.Type, req.Topic, req.Difficulty, content, answerKey, theme)
	b.WriteString("\n")
	return b.String()
}
