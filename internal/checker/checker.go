// Package checker grades student answers. Closed exercise types are graded
// deterministically; writing is delegated to an LLM verifier with a local
// fallback when the backend is unreachable.
package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
)

const (
	fallbackBaseScore     = 0.7
	fallbackViolatedScore = 0.5
)

// InvalidTypeError reports an exercise type the checker does not know how
// to grade. Unknown types never route to a default checker.
type InvalidTypeError struct {
	Type model.ExerciseType
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("no checker for exercise type %q", e.Type)
}

// Checker routes an answer to the grading strategy for its exercise type.
type Checker struct {
	verifier *Verifier
}

// New creates a Checker whose writing verdicts come from the given
// completion backend.
func New(c llm.Completer) *Checker {
	return &Checker{verifier: NewVerifier(c)}
}

// Check grades the answer against the exercise. The context is only used
// on the writing path, which makes an LLM call.
func (c *Checker) Check(ctx context.Context, ex *model.Exercise, answer string) (*model.CheckResult, error) {
	switch ex.Type {
	case model.TypeMultipleChoice:
		return checkChoice(ex, answer, model.SkillGrammar), nil
	case model.TypeReading:
		return checkChoice(ex, answer, model.SkillReading), nil
	case model.TypeGapFill:
		return checkGapFill(ex, answer), nil
	case model.TypeWriting:
		return c.checkWriting(ctx, ex, answer)
	default:
		return nil, &InvalidTypeError{Type: ex.Type}
	}
}

// normalize prepares text for comparison: trim, lowercase, collapse
// whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// mapChoice resolves a raw answer to an option index. Priority order:
// single letter A-D, bare integer as 0-based index, normalized text match.
// Returns -1 when nothing matches.
func mapChoice(answer string, options []string) int {
	answer = strings.TrimSpace(answer)

	if len(answer) == 1 {
		upper := answer[0] &^ 0x20
		if upper >= 'A' && upper <= 'D' {
			return int(upper - 'A')
		}
	}

	if isDigits(answer) {
		// Atoi rejects values past the int range, so absurdly long digit
		// strings fall through to -1 instead of wrapping around.
		idx, err := strconv.Atoi(answer)
		if err == nil && idx < len(options) {
			return idx
		}
		return -1
	}

	norm := normalize(answer)
	for i, opt := range options {
		if normalize(opt) == norm {
			return i
		}
	}
	return -1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func checkChoice(ex *model.Exercise, answer string, skill model.Skill) *model.CheckResult {
	expected := ex.AnswerKey.CorrectOption

	idx := mapChoice(answer, ex.Content.Options)
	if idx < 0 {
		return &model.CheckResult{
			ExerciseID:        ex.ID,
			Result:            model.ResultIncorrect,
			Score:             0.0,
			Expected:          &expected,
			StudentAnswer:     answer,
			StudentNormalized: normalize(answer),
			Details: model.CheckDetails{
				Skill:      skill,
				ErrorTypes: []string{"invalid_answer"},
				Comments:   "Antwoord kon niet worden herkend.",
			},
		}
	}

	// letters map past the option count on short option lists
	student := answer
	if idx < len(ex.Content.Options) {
		student = ex.Content.Options[idx]
	}

	correct := idx == ex.AnswerKey.CorrectIndex
	res := &model.CheckResult{
		ExerciseID:        ex.ID,
		Result:            model.ResultIncorrect,
		Score:             0.0,
		Expected:          &expected,
		StudentAnswer:     student,
		StudentNormalized: normalize(answer),
		Details: model.CheckDetails{
			Skill:      skill,
			ErrorTypes: []string{"wrong_choice"},
		},
	}
	if correct {
		res.Result = model.ResultCorrect
		res.Score = 1.0
		res.Details.ErrorTypes = []string{}
	}
	return res
}

func checkGapFill(ex *model.Exercise, answer string) *model.CheckResult {
	expected := ex.AnswerKey.CorrectAnswer
	got := normalize(answer)
	correct := got == normalize(expected)

	res := &model.CheckResult{
		ExerciseID:        ex.ID,
		Result:            model.ResultIncorrect,
		Score:             0.0,
		Expected:          &expected,
		StudentAnswer:     answer,
		StudentNormalized: got,
		Details: model.CheckDetails{
			Skill:      model.SkillGrammar,
			ErrorTypes: []string{"incorrect_word"},
		},
	}
	if correct {
		res.Result = model.ResultCorrect
		res.Score = 1.0
		res.Details.ErrorTypes = []string{}
	}
	return res
}

// checkWriting combines the LLM verdict with a deterministic word-count
// check. Word count is a structural fact and its tag is appended whether
// the verifier succeeded or not.
func (c *Checker) checkWriting(ctx context.Context, ex *model.Exercise, answer string) (*model.CheckResult, error) {
	words := len(strings.Fields(answer))

	wordTag := ""
	if wl := ex.Content.WordLimit; wl != nil {
		if words < wl.Min {
			wordTag = "too_short"
		} else if words > wl.Max {
			wordTag = "too_long"
		}
	}

	llmUsed := true
	verdict, err := c.verifier.ScoreWriting(ctx, ex.Content.Prompt, ex.Content.Rubric, answer)
	if err != nil {
		llmUsed = false
		base := fallbackBaseScore
		if wordTag != "" {
			base = fallbackViolatedScore
		}
		verdict = &Verdict{
			OverallScore: base,
			Result:       model.ResultForScore(base),
			Criteria: map[string]float64{
				"structure": base,
				"content":   base,
				"language":  base,
			},
			Comments: "Automatische fallback-score (LLM kon niet worden gebruikt).",
		}
	}

	errorTypes := verdict.ErrorTypes
	if errorTypes == nil {
		errorTypes = []string{}
	}
	if wordTag != "" {
		errorTypes = append(errorTypes, wordTag)
	}

	details := model.CheckDetails{
		Skill:          model.SkillWriting,
		ErrorTypes:     errorTypes,
		Comments:       verdict.Comments,
		CriteriaScores: verdict.Criteria,
		WordCount:      words,
		WordLimit:      ex.Content.WordLimit,
		LLMUsed:        &llmUsed,
	}

	return &model.CheckResult{
		ExerciseID:        ex.ID,
		Result:            verdict.Result,
		Score:             verdict.OverallScore,
		StudentAnswer:     answer,
		StudentNormalized: normalize(answer),
		Details:           details,
	}, nil
}
