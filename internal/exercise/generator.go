// Package exercise generates practice exercises by prompting a language
// model for a structured JSON payload and repairing/normalizing whatever
// comes back.
package exercise

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/model"
)

// generationTemperature leaves the model some creative room; grading calls
// elsewhere run much colder.
const generationTemperature = 0.7

var typesForSkill = map[model.Skill][]model.ExerciseType{
	model.SkillGrammar: {model.TypeGapFill, model.TypeMultipleChoice},
	model.SkillReading: {model.TypeReading},
	model.SkillWriting: {model.TypeWriting},
}

var defaultWordLimit = model.WordLimit{Min: 80, Max: 100}

// Request describes the exercise to generate. Type is optional; when unset
// (or not valid for the skill) one is picked from the skill's allowed set.
type Request struct {
	Skill      model.Skill
	Topic      string
	Theme      string
	Difficulty model.Difficulty
	Type       model.ExerciseType
}

// GenerationError reports that the model's output could not be turned into
// a well-formed exercise. Callers must retry or surface it; a fabricated
// exercise would mislead the learner.
type GenerationError struct {
	Reason string
	Raw    string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("exercise generation failed: %s", e.Reason)
}

// Generator builds exercises through a text-completion backend.
type Generator struct {
	llm llm.Completer
}

// NewGenerator creates a Generator using the given completion backend.
func NewGenerator(c llm.Completer) *Generator {
	return &Generator{llm: c}
}

// Generate produces one exercise for the request. Unrecognized skill and
// difficulty values degrade to grammar/medium rather than failing, so a
// half-filled learner config never blocks practice. Transport errors from
// the completion backend pass through unchanged; malformed model output
// becomes a GenerationError.
func (g *Generator) Generate(ctx context.Context, req Request) (*model.Exercise, error) {
	req = normalizeRequest(req)

	prompt := buildPrompt(req)
	raw, err := g.llm.Complete(ctx, prompt, generationTemperature)
	if err != nil {
		return nil, err
	}

	parsed, err := extractJSON(raw)
	if err != nil {
		slog.Warn("exercise JSON unparseable", "error", err)
		return nil, &GenerationError{Reason: err.Error(), Raw: raw}
	}

	ex, err := buildExercise(req, parsed)
	if err != nil {
		return nil, &GenerationError{Reason: err.Error(), Raw: raw}
	}
	return ex, nil
}

// normalizeRequest applies the documented per-field defaults.
func normalizeRequest(req Request) Request {
	switch req.Skill {
	case model.SkillGrammar, model.SkillReading, model.SkillWriting:
	default:
		req.Skill = model.SkillGrammar
	}

	switch req.Difficulty {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		req.Difficulty = model.DifficultyMedium
	}

	allowed := typesForSkill[req.Skill]
	valid := false
	for _, t := range allowed {
		if req.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		if len(allowed) > 1 {
			req.Type = allowed[rand.IntN(len(allowed))]
		} else {
			req.Type = allowed[0]
		}
	}

	if strings.TrimSpace(req.Topic) == "" {
		req.Topic = "General English"
	}
	return req
}

// NormalizeTheme folds Dutch theme synonyms onto their canonical English
// labels. Unknown themes pass through lowercased; empty means "general".
func NormalizeTheme(theme string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme == "" {
		return "general"
	}
	synonyms := map[string]string{
		"reizen":      "travel",
		"vakantie":    "travel",
		"school":      "school",
		"technologie": "technology",
		"tech":        "technology",
		"milieu":      "environment",
		"omgeving":    "environment",
	}
	if canonical, ok := synonyms[theme]; ok {
		return canonical
	}
	return theme
}

// newID returns a fresh exercise id. Model-supplied ids are never trusted;
// global uniqueness comes from generating our own.
func newID() string {
	u := uuid.New()
	return fmt.Sprintf("ex_%x", u[:4])
}

// buildExercise validates the parsed payload and forces the fields the
// model is not allowed to decide.
func buildExercise(req Request, raw *rawExercise) (*model.Exercise, error) {
	ex := &model.Exercise{
		ID:           newID(),
		Type:         req.Type,
		Skill:        req.Skill,
		Topic:        req.Topic,
		Difficulty:   req.Difficulty,
		Instructions: strings.TrimSpace(raw.Instructions),
		Content: model.Content{
			Question:  strings.TrimSpace(raw.Content.Question),
			Options:   raw.Content.Options,
			Sentence:  strings.TrimSpace(raw.Content.Sentence),
			Prompt:    strings.TrimSpace(raw.Content.Prompt),
			Rubric:    raw.Content.Rubric,
			WordLimit: raw.Content.WordLimit,
			Passage:   strings.TrimSpace(raw.Content.Passage),
		},
		Metadata: model.Metadata{
			Theme:       NormalizeTheme(req.Theme),
			Explanation: strings.TrimSpace(raw.Metadata.Explanation),
		},
	}
	if raw.Topic != "" {
		ex.Topic = raw.Topic
	}

	switch req.Type {
	case model.TypeMultipleChoice, model.TypeReading:
		key, err := choiceKey(raw, ex.Content.Options)
		if err != nil {
			return nil, err
		}
		ex.AnswerKey = key
		if req.Type == model.TypeReading && ex.Content.Passage == "" {
			return nil, fmt.Errorf("reading exercise missing passage")
		}
		if ex.Content.Question == "" {
			return nil, fmt.Errorf("%s exercise missing question", req.Type)
		}
	case model.TypeGapFill:
		if ex.Content.Sentence == "" {
			return nil, fmt.Errorf("gap-fill exercise missing sentence")
		}
		if raw.AnswerKey == nil || strings.TrimSpace(raw.AnswerKey.CorrectAnswer) == "" {
			return nil, fmt.Errorf("gap-fill exercise missing correct answer")
		}
		ex.AnswerKey = &model.AnswerKey{
			CorrectAnswer: strings.TrimSpace(raw.AnswerKey.CorrectAnswer),
			Alternatives:  raw.AnswerKey.Alternatives,
		}
	case model.TypeWriting:
		if ex.Content.Prompt == "" {
			return nil, fmt.Errorf("writing exercise missing prompt")
		}
		if ex.Content.WordLimit == nil {
			wl := defaultWordLimit
			ex.Content.WordLimit = &wl
		}
		// Writing has no single correct string.
		ex.AnswerKey = nil
	}

	return ex, nil
}

// choiceKey validates option-based answer keys. Exactly one option must be
// the correct one, either by index or by matching text.
func choiceKey(raw *rawExercise, options []string) (*model.AnswerKey, error) {
	if len(options) < 2 {
		return nil, fmt.Errorf("need at least 2 options, got %d", len(options))
	}
	if raw.AnswerKey == nil {
		return nil, fmt.Errorf("missing answer key")
	}

	idx := -1
	if raw.AnswerKey.CorrectIndex != nil {
		i := *raw.AnswerKey.CorrectIndex
		if i >= 0 && i < len(options) {
			idx = i
		}
	}
	if idx < 0 && raw.AnswerKey.CorrectOption != "" {
		want := normalizeOption(raw.AnswerKey.CorrectOption)
		for i, opt := range options {
			if normalizeOption(opt) == want {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("answer key does not point at any option")
	}

	return &model.AnswerKey{
		CorrectIndex:  idx,
		CorrectOption: options[idx],
	}, nil
}

func normalizeOption(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
