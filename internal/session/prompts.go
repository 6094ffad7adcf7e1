package session

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/tutor"
)

// defaultHistoryWindow is how many recent turns feed each chat prompt.
const defaultHistoryWindow = 6

// summarizeHistory renders the last n turns as "Leerling:"/"Tutor:" lines.
func summarizeHistory(history []model.ChatTurn, n int) string {
	if n <= 0 {
		n = defaultHistoryWindow
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	if len(history) == 0 {
		return "Nog geen eerdere chatgeschiedenis."
	}

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		prefix := "Tutor:"
		if turn.Role == model.RoleUser {
			prefix = "Leerling:"
		}
		lines = append(lines, prefix+" "+turn.Text)
	}
	return strings.Join(lines, "\n")
}

// describeExercise renders an exercise for chat prompts, with its context
// line. Reading passages are truncated; the full text already reached the
// learner with the exercise itself.
func describeExercise(ex *model.Exercise) string {
	ctxLine := fmt.Sprintf("Topic: %s, Difficulty: %s, Theme: %s", ex.Topic, ex.Difficulty, ex.Metadata.Theme)

	switch ex.Type {
	case model.TypeMultipleChoice:
		return fmt.Sprintf("Type: multiple choice (grammar)\n%s\nVraag (Engels): %s\nOpties: %v",
			ctxLine, ex.Content.Question, ex.Content.Options)
	case model.TypeGapFill:
		return fmt.Sprintf("Type: invuloefening (gapfill)\n%s\nZin (Engels): %s",
			ctxLine, ex.Content.Sentence)
	case model.TypeWriting:
		return fmt.Sprintf("Type: schrijfopdracht\n%s\nPrompt (Engels): %s\nRubric: %v\nWoordenlimiet: %v",
			ctxLine, ex.Content.Prompt, ex.Content.Rubric, ex.Content.WordLimit)
	case model.TypeReading:
		passage := truncateRunes(ex.Content.Passage, 200)
		if passage != ex.Content.Passage {
			passage += "..."
		}
		return fmt.Sprintf("Type: reading comprehension\n%s\nTekst: %s\nVraag: %s\nOpties: %v",
			ctxLine, passage, ex.Content.Question, ex.Content.Options)
	}
	return fmt.Sprintf("Onbekend type oefening: %s.", ex.Type)
}

func personalityHeader(p tutor.Personality) string {
	var b strings.Builder
	b.WriteString(tutor.BaseRules)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "ACTIEVE TUTOR\n-------------\nNaam: %s\n\n", p.Name)
	fmt.Fprintf(&b, "ROL\n---\n%s\n\n", p.Role)
	fmt.Fprintf(&b, "GEDRAG\n------\n%s\n\n", p.Behavior)
	fmt.Fprintf(&b, "SPECIFIEKE REGELS\n-----------------\n%s\n", p.Rules)
	return b.String()
}

func buildGreetingPrompt(p tutor.Personality) string {
	var b strings.Builder
	b.WriteString(personalityHeader(p))
	b.WriteString(`
## Situatie
Een nieuwe leerling start een sessie met jou.

## Jouw Taak
Begroet de leerling kort.
Stel jezelf voor (naam en rol).
Leg kort uit waarmee je kunt helpen (grammatica, schrijven, lezen).
Vraag wat de leerling vandaag wil oefenen of beter begrijpen.

Max 4-5 zinnen.
`)
	return b.String()
}

func buildGeneralChatPrompt(p tutor.Personality, history []model.ChatTurn, window int, userMessage string) string {
	var b strings.Builder
	b.WriteString(personalityHeader(p))
	b.WriteString("\n")
	fmt.Fprintf(&b, "CHATGESCHIEDENIS (laatste beurten)\n----------------------------------\n%s\n\n",
		summarizeHistory(history, window))
	fmt.Fprintf(&b, "NIEUWE BOODSCHAP VAN DE LEERLING\n--------------------------------\n%s\n\n", userMessage)
	b.WriteString(`TAAK VOOR DE TUTOR
------------------
- Geef antwoord in het Nederlands (korte Engelse voorbeeldzinnen zijn oke).
- Pas je toon en stijl aan volgens de tutor-persoonlijkheid.
- Geef waar passend een korte uitleg, voorbeeld of tip.
- Bedenk geen nieuwe oefening en geen uitgebreide huiswerkopdracht.
- Gebruik maximaal 5-6 zinnen.

NU HET ANTWOORD VOOR DE LEERLING:`)
	return b.String()
}

func buildExplanationPrompt(p tutor.Personality, history []model.ChatTurn, window int, ex *ExerciseState, userMessage string) string {
	var b strings.Builder
	b.WriteString(personalityHeader(p))
	b.WriteString("\n")
	fmt.Fprintf(&b, "CHATGESCHIEDENIS (laatste beurten)\n----------------------------------\n%s\n\n",
		summarizeHistory(history, window))
	fmt.Fprintf(&b, "HUIDIGE OEFENING\n----------------\n%s\n\n", describeExercise(ex.Exercise))

	if check := ex.LastCheck; check != nil {
		expected := "onbekend"
		if check.Expected != nil {
			expected = *check.Expected
		}
		fmt.Fprintf(&b, "Resultaat van eerdere nakijk-check:\n")
		fmt.Fprintf(&b, "- Resultaat: %s\n- Score: %.2f\n- Verwacht: %s\n- Skill: %s\n- Fouttypes: %v\n\n",
			check.Result, check.Score, expected, check.Details.Skill, check.Details.ErrorTypes)
	}
	if fb := ex.LastFeedback; fb != nil {
		fmt.Fprintf(&b, "Samenvatting van eerdere feedbacktekst:\n%s\n\n",
			truncateRunes(fb.FeedbackText, 400))
	}

	fmt.Fprintf(&b, "VRAAG VAN DE LEERLING OVER DEZE OEFENING\n----------------------------------------\n%s\n\n", userMessage)
	fmt.Fprintf(&b, `TAAK VOOR DE TUTOR
------------------
- Leg in het Nederlands uit hoe deze oefening werkt of waarom een antwoord goed/fout is.
- Verwijs waar nuttig naar concrete delen van de oefening (vraag, zin, opties).
- Focus uitsluitend op deze oefening en deze vraag van de leerling.
- Bedenk GEEN nieuwe oefening en vraag de leerling niet om een nieuwe zin te maken.
- Gebruik maximaal 5-6 zinnen.
- Antwoord als %s en houd je aan de beschrijving hierboven.

NU HET ANTWOORD VOOR DE LEERLING:`, p.Name)
	return b.String()
}

// truncateRunes caps s at n runes, never splitting a multibyte sequence.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// explanationKeywords classify a chat message as being about the active
// exercise. Dutch, matched as substrings of the lowercased message.
var explanationKeywords = []string{
	"waarom", "uitleg", "leg uit", "snap niet", "begrijp niet", "wat is hier",
}

func looksLikeExplanationQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range explanationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
