package exercise

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/S0tham/Sofida/internal/model"
)

// rawExercise mirrors the JSON shape requested from the model. Every field
// is optional at this stage; validation happens in buildExercise.
type rawExercise struct {
	ExerciseID   string `json:"exercise_id"`
	Type         string `json:"type"`
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	Instructions string `json:"instructions"`
	Content      struct {
		Question  string            `json:"question"`
		Options   []string          `json:"options"`
		Sentence  string            `json:"sentence"`
		Prompt    string            `json:"prompt"`
		Rubric    map[string]string `json:"rubric"`
		WordLimit *model.WordLimit  `json:"word_limit"`
		Passage   string            `json:"passage"`
	} `json:"content"`
	AnswerKey *struct {
		CorrectIndex  *int     `json:"correct_index"`
		CorrectOption string   `json:"correct_option"`
		CorrectAnswer string   `json:"correct_answer"`
		Alternatives  []string `json:"alternatives"`
	} `json:"answer_key"`
	Metadata struct {
		Theme       string `json:"theme"`
		Explanation string `json:"explanation"`
	} `json:"metadata"`
}

// extractJSON tries increasingly forgiving ways to pull one JSON object out
// of model output: the text as-is, the interior of a fenced code block, and
// finally the substring between the first '{' and the last '}'.
func extractJSON(text string) (*rawExercise, error) {
	candidates := []string{strings.TrimSpace(text)}
	if inner, ok := stripFences(text); ok {
		candidates = append(candidates, inner)
	}
	if sliced, ok := braceSlice(text); ok {
		candidates = append(candidates, sliced)
	}

	var lastErr error
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var raw rawExercise
		if err := json.Unmarshal([]byte(c), &raw); err != nil {
			lastErr = err
			continue
		}
		return &raw, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty response")
	}
	return nil, fmt.Errorf("no JSON object found: %w", lastErr)
}

// stripFences returns the body of the first ``` fenced block, dropping an
// optional language tag on the opening fence.
func stripFences(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if !strings.ContainsAny(firstLine, "{}") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimSpace(rest[:end]), true
}

// braceSlice cuts the substring between the first '{' and the last '}'.
func braceSlice(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
