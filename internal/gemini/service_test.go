package gemini_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quiz-arena/quiz-arena/internal/gemini"
)

// fakeClient replays scripted responses and records every prompt it saw.
type fakeClient struct {
	responses []string
	errs      []error
	prompts   []string
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("fake client: no scripted response")
}

const validEnvelope = `{"questions":[
	{"type":"mcq","question_text":"Pick","options":["a","b","c"],"correct_option":"c","explanation":"why"},
	{"type":"open","question_text":"Explain","options":["stray"],"explanation":"rubric"}
]}`

func TestGenerateQuestionsValidFirstTry(t *testing.T) {
	client := &fakeClient{responses: []string{validEnvelope}}
	svc := gemini.NewService(client)

	out, _, err := svc.GenerateQuestions(context.Background(), gemini.GenerateParams{
		SourceText: "src", Title: "T", MCQCount: 1, OpenCount: 1, Difficulty: "easy",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("model calls = %d, want 1", len(client.prompts))
	}
	if len(out) != 2 {
		t.Fatalf("question count = %d, want 2", len(out))
	}
	// correct_option normalized to upper case.
	if out[0].CorrectOption != "C" {
		t.Fatalf("correct_option = %q, want C", out[0].CorrectOption)
	}
	// open questions never keep options, whatever the model returned.
	if out[1].Options != nil {
		t.Fatalf("open question kept options: %v", out[1].Options)
	}
}

func TestGenerateQuestionsRepairSucceeds(t *testing.T) {
	client := &fakeClient{responses: []string{"this is not json", validEnvelope}}
	svc := gemini.NewService(client)

	out, _, err := svc.GenerateQuestions(context.Background(), gemini.GenerateParams{MCQCount: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.prompts) != 2 {
		t.Fatalf("model calls = %d, want 2", len(client.prompts))
	}
	if !strings.Contains(client.prompts[1], "this is not json") {
		t.Fatalf("repair prompt does not embed the rejected output:\n%s", client.prompts[1])
	}
	if len(out) != 2 {
		t.Fatalf("question count = %d, want 2", len(out))
	}
}

func TestGenerateQuestionsRepairFailsTerminally(t *testing.T) {
	client := &fakeClient{responses: []string{"garbage one", "garbage two", validEnvelope}}
	svc := gemini.NewService(client)

	_, _, err := svc.GenerateQuestions(context.Background(), gemini.GenerateParams{MCQCount: 1})
	if !errors.Is(err, gemini.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	// Exactly one repair attempt; the third scripted response must be unused.
	if len(client.prompts) != 2 {
		t.Fatalf("model calls = %d, want 2", len(client.prompts))
	}
}

func TestGenerateQuestionsTransportErrorNoRetry(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("connection reset")}}
	svc := gemini.NewService(client)

	_, _, err := svc.GenerateQuestions(context.Background(), gemini.GenerateParams{MCQCount: 1})
	if !errors.Is(err, gemini.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("model calls = %d, want 1 (transport errors are terminal)", len(client.prompts))
	}
}

func TestGenerateQuestionsPostProcessing(t *testing.T) {
	raw := `{"questions":[
		{"type":"mcq","question_text":"too few","options":["only"],"correct_option":"A","explanation":"x"},
		{"type":"mcq","question_text":" padded ","options":["a","b","c","d","e","f"],"correct_option":"Z","explanation":" y "}
	]}`
	client := &fakeClient{responses: []string{raw}}
	svc := gemini.NewService(client)

	out, _, err := svc.GenerateQuestions(context.Background(), gemini.GenerateParams{MCQCount: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("question count = %d, want 1 (single-option mcq dropped)", len(out))
	}
	q := out[0]
	if len(q.Options) != 4 {
		t.Fatalf("options capped at 4, got %d", len(q.Options))
	}
	if q.CorrectOption != "A" {
		t.Fatalf("invalid correct key should default to A, got %q", q.CorrectOption)
	}
	if q.QuestionText != "padded" || q.Explanation != "y" {
		t.Fatalf("text not trimmed: %+v", q)
	}
}

func TestGradeOpenAnswerModelPath(t *testing.T) {
	client := &fakeClient{responses: []string{`{"score":1.7,"feedback":" great "}`}}
	svc := gemini.NewService(client)

	score, feedback, gradedBy, err := svc.GradeOpenAnswer(context.Background(), "ref", "q", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 1.0 {
		t.Fatalf("score = %v, want clamped 1.0", score)
	}
	if feedback != "great" {
		t.Fatalf("feedback = %q, want trimmed", feedback)
	}
	if gradedBy != "model" {
		t.Fatalf("graded_by = %q, want model", gradedBy)
	}
}

func TestGradeOpenAnswerNoRepairRetry(t *testing.T) {
	client := &fakeClient{responses: []string{"broken", `{"score":1,"feedback":"x"}`}}
	svc := gemini.NewService(client)

	_, _, _, err := svc.GradeOpenAnswer(context.Background(), "ref", "q", "a")
	if !errors.Is(err, gemini.ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("model calls = %d, want 1 (grading never retries)", len(client.prompts))
	}
}

func TestGradeOpenAnswerOfflineFallback(t *testing.T) {
	svc := gemini.NewService(nil)

	score, feedback, gradedBy, err := svc.GradeOpenAnswer(context.Background(),
		"Photosynthesis converts sunlight into glucose inside chloroplasts.",
		"What does photosynthesis produce?",
		"Photosynthesis produces glucose using sunlight.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gradedBy != "fallback" {
		t.Fatalf("graded_by = %q, want fallback", gradedBy)
	}
	if score <= 0 || score > 1 {
		t.Fatalf("score = %v, want in (0,1]", score)
	}
	if feedback == "" {
		t.Fatal("expected non-empty feedback")
	}
}

func TestGradeOpenAnswerOfflineEmptyAnswer(t *testing.T) {
	svc := gemini.NewService(nil)

	score, feedback, gradedBy, err := svc.GradeOpenAnswer(context.Background(), "ref text here", "q", "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 0 {
		t.Fatalf("score = %v, want 0", score)
	}
	if gradedBy != "fallback" {
		t.Fatalf("graded_by = %q, want fallback", gradedBy)
	}
	if !strings.HasPrefix(feedback, "No answer detected") {
		t.Fatalf("feedback = %q", feedback)
	}
}

func TestNewServiceNilClientUsesFallbackSource(t *testing.T) {
	svc := gemini.NewService(nil)
	out, _, err := svc.GenerateQuestions(context.Background(), gemini.GenerateParams{
		SourceText: "entropy increases in closed systems", MCQCount: 2, OpenCount: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("question count = %d, want 3", len(out))
	}
}
