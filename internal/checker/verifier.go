package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
)

// scoring asks for cold, repeatable judgements.
const verifierTemperature = 0.1

// Verdict is the verifier's structured assessment of a writing submission.
type Verdict struct {
	OverallScore float64            `json:"overall_score"`
	Result       model.Result       `json:"result"`
	Criteria     map[string]float64 `json:"criteria"`
	ErrorTypes   []string           `json:"error_types"`
	Comments     string             `json:"comments"`
}

// Verifier scores open-ended writing through a completion backend.
type Verifier struct {
	llm llm.Completer
}

// NewVerifier creates a Verifier using the given completion backend.
func NewVerifier(c llm.Completer) *Verifier {
	return &Verifier{llm: c}
}

// ScoreWriting asks the model for an objective assessment. It returns an
// error only when the completion call itself fails; malformed model output
// is always repaired into a best-effort Verdict.
func (v *Verifier) ScoreWriting(ctx context.Context, prompt string, rubric map[string]string, studentAnswer string) (*Verdict, error) {
	raw, err := v.llm.Complete(ctx, buildVerifierPrompt(prompt, rubric, studentAnswer), verifierTemperature)
	if err != nil {
		return nil, err
	}
	return repairVerdict(raw), nil
}

func buildVerifierPrompt(prompt string, rubric map[string]string, studentAnswer string) string {
	rubricJSON, err := json.MarshalIndent(rubric, "", "  ")
	if err != nil {
		slog.Warn("rubric not serializable", "error", err)
		rubricJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("You are an objective English writing assessor for Dutch secondary-school students (B1/B2 level).\n\n")
	b.WriteString("CRITICAL: Your response must be ONLY valid JSON. No explanations, no markdown, no backticks.\n\n")
	b.WriteString("TASK:\nEvaluate this student's writing based on the prompt and rubric below.\n")
	b.WriteString("DO NOT provide feedback. Only objective scores and error types.\n\n")
	fmt.Fprintf(&b, "PROMPT:\n%s\n\nRUBRIC:\n%s\n\nSTUDENT ANSWER:\n%s\n\n", prompt, rubricJSON, studentAnswer)
	b.WriteString(`Return ONLY this JSON structure (no other text):

{
  "overall_score": 0.85,
  "result": "correct",
  "criteria": {
    "structure": 0.9,
    "content": 0.8,
    "language": 0.85
  },
  "error_types": ["minor_grammar", "spelling"],
  "comments": "one short objective remark"
}

Rules for scoring:
- overall_score: 0.0 to 1.0 (0.8+ = correct, 0.5-0.79 = almost, <0.5 = incorrect)
- result: "correct", "almost", or "incorrect"
- Each criterion score: 0.0 to 1.0
- error_types: array of strings identifying issues (e.g. "grammar", "spelling", "structure", "content", "coherence", "vocabulary")

RESPOND WITH ONLY THE JSON OBJECT NOW:`)
	return b.String()
}
