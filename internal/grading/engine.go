package grading

import (
	"context"
	"fmt"
	"strings"
)

// Input is the minimal view of a question and submission needed for grading.
type Input struct {
	Kind          string // mcq|open
	QuestionText  string
	UserAnswer    string
	CorrectOption string // mcq only
	Explanation   string
	ReferenceText string // quiz metadata + question explanations, capped upstream
}

// Result is the outcome of grading a single answer.
type Result struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	GradedBy string  `json:"graded_by"` // rule|model|fallback
}

// Strategy grades one answer.
type Strategy interface {
	Grade(ctx context.Context, in Input) (Result, error)
}

// OpenGrader is what the model-backed (or offline) open-answer service
// provides. Returns (score, feedback, grader tag).
type OpenGrader interface {
	GradeOpenAnswer(ctx context.Context, referenceText, questionText, userAnswer string) (float64, string, string, error)
}

// Grader routes by question kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, in Input) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

// NewDefaultGrader installs the rule strategy for MCQs and delegates open
// answers to the given service.
func NewDefaultGrader(open OpenGrader) Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			"mcq":  ruleStrategy{},
			"open": openStrategy{svc: open},
		},
	}
}

func (g *defaultGrader) Grade(ctx context.Context, in Input) (Result, error) {
	in.UserAnswer = strings.TrimSpace(in.UserAnswer)
	s, ok := g.strategies[in.Kind]
	if !ok {
		return Result{}, fmt.Errorf("no strategy for question kind %q", in.Kind)
	}
	res, err := s.Grade(ctx, in)
	if err != nil {
		return Result{}, err
	}
	// Hard boundary: whatever a strategy computed, callers only ever see a
	// score inside [0,1].
	if res.Score < 0 {
		res.Score = 0
	}
	if res.Score > 1 {
		res.Score = 1
	}
	return res, nil
}

/* ---------------- strategies ---------------- */

// ruleStrategy scores MCQs by exact option match, case-insensitive.
type ruleStrategy struct{}

func (ruleStrategy) Grade(_ context.Context, in Input) (Result, error) {
	expected := strings.ToUpper(strings.TrimSpace(in.CorrectOption))
	submitted := strings.ToUpper(in.UserAnswer)

	if expected != "" && submitted == expected {
		feedback := in.Explanation
		if feedback == "" {
			feedback = "Correct."
		}
		return Result{Score: 1.0, Feedback: feedback, GradedBy: "rule"}, nil
	}

	var feedback string
	switch {
	case expected != "":
		feedback = strings.TrimSpace(fmt.Sprintf("Incorrect. Correct option: %s. %s", expected, in.Explanation))
	case in.Explanation != "":
		feedback = in.Explanation
	default:
		feedback = "Incorrect answer."
	}
	return Result{Score: 0.0, Feedback: feedback, GradedBy: "rule"}, nil
}

type openStrategy struct {
	svc OpenGrader
}

func (s openStrategy) Grade(ctx context.Context, in Input) (Result, error) {
	score, feedback, gradedBy, err := s.svc.GradeOpenAnswer(ctx, in.ReferenceText, in.QuestionText, in.UserAnswer)
	if err != nil {
		return Result{}, err
	}
	return Result{Score: score, Feedback: feedback, GradedBy: gradedBy}, nil
}
