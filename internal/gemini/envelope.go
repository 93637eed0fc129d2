package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMalformedResponse means the model output was not parseable JSON.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrSchemaViolation means the JSON parsed but failed the envelope schema.
	ErrSchemaViolation = errors.New("model response violates schema")
	// ErrGenerationFailed is terminal: transport failure, or validation
	// failure that survived the single repair attempt.
	ErrGenerationFailed = errors.New("generation failed")
)

// GeneratedQuestion is one validated question from a generation envelope.
// Open questions always carry nil Options and an empty CorrectOption.
type GeneratedQuestion struct {
	Kind          string   `json:"type"` // mcq|open
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

type GenerationEnvelope struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type GradeEnvelope struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

var fenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// StripFences removes a single markdown code fence (optionally tagged with a
// language) around the payload; without one the trimmed text is returned.
func StripFences(text string) string {
	content := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

// ParseGenerationEnvelope turns raw model output into a validated envelope.
func ParseGenerationEnvelope(raw string) (GenerationEnvelope, error) {
	cleaned := StripFences(raw)
	if !json.Valid([]byte(cleaned)) {
		return GenerationEnvelope{}, ErrMalformedResponse
	}
	var probe struct {
		Questions *[]GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return GenerationEnvelope{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if probe.Questions == nil {
		return GenerationEnvelope{}, fmt.Errorf("%w: questions array is required", ErrSchemaViolation)
	}
	env := GenerationEnvelope{Questions: *probe.Questions}
	for i, q := range env.Questions {
		if q.Kind != "mcq" && q.Kind != "open" {
			return GenerationEnvelope{}, fmt.Errorf("%w: question %d: type must be mcq or open", ErrSchemaViolation, i)
		}
		if q.QuestionText == "" {
			return GenerationEnvelope{}, fmt.Errorf("%w: question %d: empty question_text", ErrSchemaViolation, i)
		}
		if q.Explanation == "" {
			return GenerationEnvelope{}, fmt.Errorf("%w: question %d: empty explanation", ErrSchemaViolation, i)
		}
	}
	return env, nil
}

// ParseGradeEnvelope validates raw model output against the grade schema.
func ParseGradeEnvelope(raw string) (GradeEnvelope, error) {
	cleaned := StripFences(raw)
	if !json.Valid([]byte(cleaned)) {
		return GradeEnvelope{}, ErrMalformedResponse
	}
	var probe struct {
		Score    *float64 `json:"score"`
		Feedback *string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return GradeEnvelope{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if probe.Score == nil || probe.Feedback == nil {
		return GradeEnvelope{}, fmt.Errorf("%w: score and feedback are required", ErrSchemaViolation)
	}
	return GradeEnvelope{Score: *probe.Score, Feedback: *probe.Feedback}, nil
}
