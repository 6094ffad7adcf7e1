package checker

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/S0tham/Sofida/internal/model"
)

var (
	scorePattern    = regexp.MustCompile(`"overall_score"\s*:\s*([0-9.]+)`)
	resultPattern   = regexp.MustCompile(`"result"\s*:\s*["']([^"']+)["']`)
	commentsPattern = regexp.MustCompile(`"comments"\s*:\s*["']([^"']+)["']`)
)

// repairVerdict turns raw model output into a Verdict. Attempts, in order:
// direct parse of the fenced/brace-sliced object, the same after undoing
// escaped double quotes, the same after swapping single quotes for double
// quotes, and finally per-field regex extraction over safe defaults. It
// never fails; the worst case is the neutral default verdict.
func repairVerdict(raw string) *Verdict {
	candidate := sliceObject(raw)

	attempts := []string{
		candidate,
		strings.ReplaceAll(candidate, `\"`, `"`),
		strings.ReplaceAll(candidate, "'", `"`),
	}
	for _, a := range attempts {
		if a == "" {
			continue
		}
		var v Verdict
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			continue
		}
		return sanitize(&v)
	}

	slog.Warn("writing verdict unparseable, extracting fields", "raw_len", len(raw))
	return sanitize(extractFields(raw))
}

// sliceObject strips a ```json or generic ``` fence and cuts the substring
// between the first '{' and the last '}' of what remains.
func sliceObject(raw string) string {
	if i := strings.Index(raw, "```json"); i >= 0 {
		raw = raw[i+len("```json"):]
		if j := strings.Index(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	} else if i := strings.Index(raw, "```"); i >= 0 {
		raw = raw[i+3:]
		if j := strings.Index(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// extractFields pulls individual fields with regular expressions. Fields
// that cannot be found keep their defaults.
func extractFields(raw string) *Verdict {
	v := &Verdict{
		OverallScore: 0.5,
		Result:       model.ResultAlmost,
		Criteria: map[string]float64{
			"structure": 0.5,
			"content":   0.5,
			"language":  0.5,
		},
		ErrorTypes: []string{},
		Comments:   "Automatische fallback-score (parsing mislukt).",
	}

	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if score, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.OverallScore = score
		}
	}
	if m := resultPattern.FindStringSubmatch(raw); m != nil {
		v.Result = model.Result(m[1])
	}
	if m := commentsPattern.FindStringSubmatch(raw); m != nil {
		v.Comments = m[1]
	}
	return v
}

// sanitize clamps scores into [0,1] and replaces an unrecognized result
// label with the band mapping for the overall score.
func sanitize(v *Verdict) *Verdict {
	v.OverallScore = clamp01(v.OverallScore)
	for k, s := range v.Criteria {
		v.Criteria[k] = clamp01(s)
	}
	switch v.Result {
	case model.ResultCorrect, model.ResultAlmost, model.ResultIncorrect:
	default:
		v.Result = model.ResultForScore(v.OverallScore)
	}
	return v
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
