// Package feedback turns a grading verdict into personality-flavored
// tutor feedback for the learner.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
	"github.com/S0tham/Sofida/internal/tutor"
)

// feedback tone follows the personality, so leave warmth in the sampling.
const feedbackTemperature = 0.7

// globalRules apply to every personality. The output contract: Dutch,
// short, about this exercise only, positive note + explanation + tip.
const globalRules = `[ALGEMENE FEEDBACKREGELS VOOR DE TUTOR]

- Doelgroep: Nederlandse leerlingen (ongeveer B1/B2 Engels).
- Schrijf je feedback in het Nederlands, maar gebruik Engelse voorbeeldzinnen waar nodig.
- Houd het kort en concreet (meestal maximaal 4-5 zinnen).
- De feedback gaat alleen over de huidige opdracht en het gegeven antwoord.
- Geef geen nieuwe oefenzinnen, geen nieuwe opdrachten en vraag de leerling niet om nu iets nieuws te doen.
- Noem in je feedback altijd:
  1) Een korte positieve opmerking (wat ging goed of was een goed initiatief).
  2) Een duidelijke uitleg waarom het antwoord goed, bijna goed of fout is.
  3) Een tip of mini-uitleg van de regel of aanpak die hierbij hoort.
- Gebruik geen opsommingslijst in markdown, maar gewoon lopende tekst.`

// Generator produces feedback text through a completion backend.
type Generator struct {
	llm llm.Completer
}

// NewGenerator creates a Generator using the given completion backend.
func NewGenerator(c llm.Completer) *Generator {
	return &Generator{llm: c}
}

// Generate composes the feedback prompt and returns the model's reply as a
// FeedbackRecord. Completion failures propagate; a silently degraded
// feedback message would be worse than an error the caller can surface.
func (g *Generator) Generate(ctx context.Context, ex *model.Exercise, studentAnswer string, check *model.CheckResult, p tutor.Personality) (*model.FeedbackRecord, error) {
	prompt := buildPrompt(ex, studentAnswer, check, p)
	text, err := g.llm.Complete(ctx, prompt, feedbackTemperature)
	if err != nil {
		return nil, fmt.Errorf("feedback generation: %w", err)
	}

	return &model.FeedbackRecord{
		ExerciseID:   ex.ID,
		Result:       check.Result,
		Score:        check.Score,
		TutorName:    p.Name,
		FeedbackText: strings.TrimSpace(text),
		Meta: model.FeedbackMeta{
			Skill:      check.Details.Skill,
			ErrorTypes: check.Details.ErrorTypes,
		},
	}, nil
}

// errorSummary renders the detected error tags for the prompt.
func errorSummary(details model.CheckDetails) string {
	if len(details.ErrorTypes) == 0 {
		return "Geen specifieke fouttypes gedetecteerd."
	}
	return "Gedetecteerde fouttypes: " + strings.Join(details.ErrorTypes, ", ")
}

// describeExercise renders a compact type-specific description of the
// exercise for the prompt.
func describeExercise(ex *model.Exercise) string {
	switch ex.Type {
	case model.TypeMultipleChoice:
		return fmt.Sprintf("Type: multiple choice (grammar)\nVraag (Engels): %s\nOpties: %v",
			ex.Content.Question, ex.Content.Options)
	case model.TypeGapFill:
		return fmt.Sprintf("Type: invuloefening (grammar gapfill)\nZin (Engels): %s", ex.Content.Sentence)
	case model.TypeWriting:
		rubric, _ := json.Marshal(ex.Content.Rubric)
		return fmt.Sprintf("Type: schrijfopdracht\nPrompt (Engels): %s\nRubric (Nederlands): %s\nWoordenlimiet: %s",
			ex.Content.Prompt, rubric, formatWordLimit(ex.Content.WordLimit))
	case model.TypeReading:
		return fmt.Sprintf("Type: leesvaardigheid\nTekst (Engels): %s\nVraag (Engels): %s\nOpties: %v",
			ex.Content.Passage, ex.Content.Question, ex.Content.Options)
	}
	return fmt.Sprintf("Type: %s", ex.Type)
}

func formatWordLimit(wl *model.WordLimit) string {
	if wl == nil {
		return "geen"
	}
	return fmt.Sprintf("%d-%d woorden", wl.Min, wl.Max)
}

// situationHint steers the tone per verdict without dictating wording.
func situationHint(result model.Result) string {
	switch result {
	case model.ResultCorrect:
		return "De leerling heeft het antwoord goed. Focus vooral op complimenteren en een korte bevestiging " +
			"van de regel of het idee. Houd het bij uitleg over deze opdracht."
	case model.ResultAlmost:
		return "De leerling zit er dicht bij. Benoem wat er goed is en leg rustig uit wat nog net niet klopt. " +
			"Houd de feedback beperkt tot deze opdracht, zonder nieuwe oefeningen te bedenken."
	default:
		return "De leerling heeft het antwoord fout. Benoem vriendelijk maar duidelijk wat er niet klopt, " +
			"en leg de juiste oplossing uit met een klein voorbeeld. " +
			"Geef alleen uitleg over deze opdracht; geen nieuwe zinnen of opdrachten."
	}
}

func buildPrompt(ex *model.Exercise, studentAnswer string, check *model.CheckResult, p tutor.Personality) string {
	expected := "onbekend"
	if check.Expected != nil {
		expected = *check.Expected
	}

	var b strings.Builder
	b.WriteString("Jij bent een AI-tutor Engels voor Nederlandse leerlingen.\n")
	b.WriteString("Je neemt de persoonlijkheid over van de tutor hieronder.\n\n")

	fmt.Fprintf(&b, "[TUTOR PERSOONLIJKHEID]\nNaam: %s\n\nRol:\n%s\n\nGedrag:\n%s\n\nRegels:\n%s\n\n",
		p.Name, p.Role, p.Behavior, p.Rules)

	b.WriteString(globalRules)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Context van de oefening:\n")
	fmt.Fprintf(&b, "- Topic (grammatica/vaardigheid): %s\n", ex.Topic)
	fmt.Fprintf(&b, "- Theme (inhoudelijk thema): %s\n", ex.Metadata.Theme)
	fmt.Fprintf(&b, "- Difficulty: %s\n", ex.Difficulty)
	fmt.Fprintf(&b, "- Didactische uitleg uit metadata (optioneel): %s\n", ex.Metadata.Explanation)
	fmt.Fprintf(&b, "- Instructie voor de leerling (Nederlands): %s\n\n", ex.Instructions)

	fmt.Fprintf(&b, "Beschrijving van de concrete oefening:\n%s\n\n", describeExercise(ex))

	fmt.Fprintf(&b, "OORDEEL VAN DE ANTWOORD CHECKER:\n")
	fmt.Fprintf(&b, "- Resultaat: %s\n", check.Result)
	fmt.Fprintf(&b, "- Score: %.2f\n", check.Score)
	fmt.Fprintf(&b, "- Verwacht antwoord (indien bekend): %s\n", expected)
	fmt.Fprintf(&b, "- Skill: %s\n", check.Details.Skill)
	fmt.Fprintf(&b, "- %s\n\n", errorSummary(check.Details))

	fmt.Fprintf(&b, "Antwoord van de leerling:\n%s\n\n", studentAnswer)

	fmt.Fprintf(&b, "SITUATIE:\n%s\n\n", situationHint(check.Result))

	b.WriteString(`JOUW TAAK:
- Genereer nu een vloeiende feedbacktekst in het Nederlands.
- Pas je toon en stijl aan volgens de tutor-persoonlijkheid.
- Houd je aan de regels uit de persoonlijkheid en aan de algemene feedbackregels.
- Houd het bij maximaal 4-5 zinnen.
- De feedback gaat uitsluitend over de gemaakte opdracht en het gegeven antwoord.
- Bedenk geen nieuwe oefenzin, geen nieuwe opdracht en vraag de leerling niet om nu iets extra's te doen.
- Schrijf geen meta-uitleg over wat je aan het doen bent; geef alleen de feedbacktekst zoals je die aan de leerling zou sturen.

Nu de feedbacktekst:`)
	return b.String()
}
