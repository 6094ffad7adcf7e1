package model

// ExerciseType identifies the shape of an exercise and how it is graded.
type ExerciseType string

const (
	TypeMultipleChoice ExerciseType = "multiple_choice"
	TypeGapFill        ExerciseType = "gap_fill"
	TypeWriting        ExerciseType = "writing"
	TypeReading        ExerciseType = "reading"
)

// Skill is the coarse skill grouping an exercise trains.
type Skill string

const (
	SkillGrammar Skill = "grammar"
	SkillReading Skill = "reading"
	SkillWriting Skill = "writing"
)

// Difficulty represents exercise difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Result is the verdict on a student's submission.
type Result string

const (
	ResultCorrect   Result = "correct"
	ResultAlmost    Result = "almost"
	ResultIncorrect Result = "incorrect"
)

// ResultForScore maps a [0,1] score onto the three-tier verdict band.
// The same bands apply to LLM-scored writing and to the local fallback.
func ResultForScore(score float64) Result {
	switch {
	case score >= 0.8:
		return ResultCorrect
	case score >= 0.5:
		return ResultAlmost
	default:
		return ResultIncorrect
	}
}

// WordLimit bounds the length of a writing submission in words.
type WordLimit struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Content is the type-dependent payload of an exercise. Which fields are
// populated depends on the exercise type: question/options for multiple
// choice, sentence for gap-fill, prompt/rubric/word_limit for writing, and
// passage/question/options for reading.
type Content struct {
	Question  string            `json:"question,omitempty"`
	Options   []string          `json:"options,omitempty"`
	Sentence  string            `json:"sentence,omitempty"`
	Prompt    string            `json:"prompt,omitempty"`
	Rubric    map[string]string `json:"rubric,omitempty"`
	WordLimit *WordLimit        `json:"word_limit,omitempty"`
	Passage   string            `json:"passage,omitempty"`
}

// AnswerKey holds the canonical correct answer for closed exercise types.
// Writing exercises have no key (nil pointer on the Exercise).
type AnswerKey struct {
	CorrectIndex  int      `json:"correct_index"`
	CorrectOption string   `json:"correct_option,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Alternatives  []string `json:"alternatives,omitempty"`
}

// Metadata is the free-form side channel attached to an exercise.
type Metadata struct {
	Theme       string `json:"theme"`
	Explanation string `json:"explanation,omitempty"`
}

// Exercise is one unit of practice content. Created by the generator,
// immutable afterwards; the checker and feedback generator only read it.
type Exercise struct {
	ID           string       `json:"exercise_id"`
	Type         ExerciseType `json:"type"`
	Skill        Skill        `json:"skill"`
	Topic        string       `json:"topic"`
	Difficulty   Difficulty   `json:"difficulty"`
	Instructions string       `json:"instructions"`
	Content      Content      `json:"content"`
	AnswerKey    *AnswerKey   `json:"answer_key"`
	Metadata     Metadata     `json:"metadata"`
}

// CheckDetails carries per-check diagnostics. CriteriaScores, WordCount,
// WordLimit and LLMUsed are populated for writing only.
type CheckDetails struct {
	Skill          Skill              `json:"skill"`
	ErrorTypes     []string           `json:"error_types"`
	Comments       string             `json:"comments,omitempty"`
	CriteriaScores map[string]float64 `json:"criteria_scores,omitempty"`
	WordCount      int                `json:"word_count,omitempty"`
	WordLimit      *WordLimit         `json:"word_limit,omitempty"`
	LLMUsed        *bool              `json:"llm_used,omitempty"`
}

// CheckResult is the verdict produced by grading a submission.
type CheckResult struct {
	ExerciseID        string       `json:"exercise_id"`
	Result            Result       `json:"result"`
	Score             float64      `json:"score"`
	Expected          *string      `json:"expected"`
	StudentAnswer     string       `json:"student_answer,omitempty"`
	StudentNormalized string       `json:"student_normalized,omitempty"`
	Details           CheckDetails `json:"details"`
}

// FeedbackMeta mirrors the skill and error tags of the check the feedback
// responds to.
type FeedbackMeta struct {
	Skill      Skill    `json:"skill"`
	ErrorTypes []string `json:"error_types"`
}

// FeedbackRecord is the tutor's reply to a graded attempt. Immutable once
// created.
type FeedbackRecord struct {
	ExerciseID   string       `json:"exercise_id"`
	Result       Result       `json:"result"`
	Score        float64      `json:"score"`
	TutorName    string       `json:"tutor_name"`
	FeedbackText string       `json:"feedback_text"`
	Meta         FeedbackMeta `json:"meta"`
}

// ChatRole distinguishes the two speakers in a session's chat history.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleTutor ChatRole = "tutor"
)

// ChatTurn is a single message in the session history.
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// Config drives exercise generation for a session. The learner may change
// it at any time.
type Config struct {
	Topic      string     `json:"topic"`
	Theme      string     `json:"theme"`
	Skill      Skill      `json:"skill"`
	Difficulty Difficulty `json:"difficulty"`
}

// DefaultConfig returns the configuration a fresh session starts with.
func DefaultConfig() Config {
	return Config{
		Topic:      "Present Perfect",
		Theme:      "school",
		Skill:      SkillGrammar,
		Difficulty: DifficultyMedium,
	}
}

// TutorInfo is the public projection of the active tutor personality.
type TutorInfo struct {
	Name string `json:"name"`
}

// PublicState is the read-only projection of a session handed to API
// callers. It never aliases the session's internal mutable structures.
type PublicState struct {
	Tutor             TutorInfo       `json:"tutor"`
	Config            Config          `json:"config"`
	ChatHistory       []ChatTurn      `json:"chat_history"`
	CurrentExercise   *Exercise       `json:"current_exercise"`
	CurrentExerciseID string          `json:"current_exercise_id,omitempty"`
	CurrentFeedback   *FeedbackRecord `json:"current_feedback"`
}
