package grading_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quiz-arena/quiz-arena/internal/gemini"
	"github.com/quiz-arena/quiz-arena/internal/grading"
)

// fakeOpenGrader returns whatever it is configured with.
type fakeOpenGrader struct {
	score    float64
	feedback string
	gradedBy string
	err      error
}

func (f fakeOpenGrader) GradeOpenAnswer(context.Context, string, string, string) (float64, string, string, error) {
	return f.score, f.feedback, f.gradedBy, f.err
}

func TestGradeMCQCorrect(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{})
	res, err := g.Grade(context.Background(), grading.Input{
		Kind:          "mcq",
		UserAnswer:    "  b ",
		CorrectOption: "B",
		Explanation:   "B is right because of X.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 1.0 {
		t.Fatalf("score = %v, want 1.0", res.Score)
	}
	if res.GradedBy != "rule" {
		t.Fatalf("graded_by = %q, want rule", res.GradedBy)
	}
	if res.Feedback != "B is right because of X." {
		t.Fatalf("feedback = %q", res.Feedback)
	}
}

func TestGradeMCQCorrectWithoutExplanation(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{})
	res, err := g.Grade(context.Background(), grading.Input{
		Kind: "mcq", UserAnswer: "a", CorrectOption: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Feedback != "Correct." {
		t.Fatalf("feedback = %q, want Correct.", res.Feedback)
	}
}

func TestGradeMCQIncorrect(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{})
	res, err := g.Grade(context.Background(), grading.Input{
		Kind:          "mcq",
		UserAnswer:    "D",
		CorrectOption: "A",
		Explanation:   "A covers the definition.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 0.0 {
		t.Fatalf("score = %v, want 0.0", res.Score)
	}
	want := "Incorrect. Correct option: A. A covers the definition."
	if res.Feedback != want {
		t.Fatalf("feedback = %q, want %q", res.Feedback, want)
	}
}

func TestGradeMCQIncorrectNoKey(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{})
	res, err := g.Grade(context.Background(), grading.Input{Kind: "mcq", UserAnswer: "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 0.0 || res.Feedback != "Incorrect answer." {
		t.Fatalf("result = %+v", res)
	}
}

func TestGradeOpenDelegates(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{score: 0.6, feedback: "decent", gradedBy: "model"})
	res, err := g.Grade(context.Background(), grading.Input{Kind: "open", UserAnswer: "an answer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 0.6 || res.Feedback != "decent" || res.GradedBy != "model" {
		t.Fatalf("result = %+v", res)
	}
}

func TestGradeClampsOutOfRangeScores(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{score: 2.5, feedback: "x", gradedBy: "model"})
	res, err := g.Grade(context.Background(), grading.Input{Kind: "open", UserAnswer: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 1.0 {
		t.Fatalf("score = %v, want clamped 1.0", res.Score)
	}

	g = grading.NewDefaultGrader(fakeOpenGrader{score: -0.3, feedback: "x", gradedBy: "model"})
	res, err = g.Grade(context.Background(), grading.Input{Kind: "open", UserAnswer: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 0.0 {
		t.Fatalf("score = %v, want clamped 0.0", res.Score)
	}
}

func TestGradeOpenErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	g := grading.NewDefaultGrader(fakeOpenGrader{err: boom})
	_, err := g.Grade(context.Background(), grading.Input{Kind: "open", UserAnswer: "a"})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestGradeUnknownKind(t *testing.T) {
	g := grading.NewDefaultGrader(fakeOpenGrader{})
	_, err := g.Grade(context.Background(), grading.Input{Kind: "essay"})
	if err == nil || !strings.Contains(err.Error(), "essay") {
		t.Fatalf("error = %v, want unknown-kind failure", err)
	}
}

func TestGradeOpenOfflineFallbackEndToEnd(t *testing.T) {
	// Real service with no model client: the keyword heuristic grades.
	g := grading.NewDefaultGrader(gemini.NewService(nil))
	res, err := g.Grade(context.Background(), grading.Input{
		Kind:          "open",
		QuestionText:  "Describe osmosis.",
		UserAnswer:    "Osmosis moves water across a membrane toward higher solute concentration.",
		ReferenceText: "Osmosis is the movement of water across a semipermeable membrane driven by solute concentration.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.GradedBy != "fallback" {
		t.Fatalf("graded_by = %q, want fallback", res.GradedBy)
	}
	if res.Score <= 0 {
		t.Fatalf("score = %v, want > 0 for overlapping answer", res.Score)
	}
}
