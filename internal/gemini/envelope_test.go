package gemini_test

import (
	"errors"
	"testing"

	"github.com/quiz-arena/quiz-arena/internal/gemini"
)

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"tagged fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", "  {\"a\":1}  ", `{"a":1}`},
		{"fence inside prose", "Here you go:\n```json\n{\"a\":1}\n```\nDone.", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := gemini.StripFences(tc.in); got != tc.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseGenerationEnvelopeValid(t *testing.T) {
	raw := "```json\n" + `{"questions":[
		{"type":"mcq","question_text":"Pick one","options":["a","b","c","d"],"correct_option":"B","explanation":"because"},
		{"type":"open","question_text":"Explain","explanation":"rubric"}
	]}` + "\n```"
	env, err := gemini.ParseGenerationEnvelope(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.Questions) != 2 {
		t.Fatalf("question count = %d, want 2", len(env.Questions))
	}
	if env.Questions[0].CorrectOption != "B" {
		t.Fatalf("correct_option = %q, want B", env.Questions[0].CorrectOption)
	}
	if env.Questions[1].Kind != "open" {
		t.Fatalf("kind = %q, want open", env.Questions[1].Kind)
	}
}

func TestParseGenerationEnvelopeMalformed(t *testing.T) {
	_, err := gemini.ParseGenerationEnvelope(`{"questions": [`)
	if !errors.Is(err, gemini.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestParseGenerationEnvelopeSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing questions key", `{"items":[]}`},
		{"bad kind", `{"questions":[{"type":"truefalse","question_text":"x","explanation":"y"}]}`},
		{"empty question_text", `{"questions":[{"type":"open","question_text":"","explanation":"y"}]}`},
		{"empty explanation", `{"questions":[{"type":"open","question_text":"x","explanation":""}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := gemini.ParseGenerationEnvelope(tc.raw)
			if !errors.Is(err, gemini.ErrSchemaViolation) {
				t.Fatalf("error = %v, want ErrSchemaViolation", err)
			}
		})
	}
}

func TestParseGenerationEnvelopeEmptyQuestionsAllowed(t *testing.T) {
	env, err := gemini.ParseGenerationEnvelope(`{"questions":[]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.Questions) != 0 {
		t.Fatalf("expected empty questions, got %d", len(env.Questions))
	}
}

func TestParseGradeEnvelope(t *testing.T) {
	env, err := gemini.ParseGradeEnvelope("```json\n{\"score\":0.75,\"feedback\":\"solid\"}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Score != 0.75 || env.Feedback != "solid" {
		t.Fatalf("envelope = %+v", env)
	}

	if _, err := gemini.ParseGradeEnvelope(`{"score":0.5}`); !errors.Is(err, gemini.ErrSchemaViolation) {
		t.Fatalf("missing feedback: error = %v, want ErrSchemaViolation", err)
	}
	if _, err := gemini.ParseGradeEnvelope(`{"feedback":"x"}`); !errors.Is(err, gemini.ErrSchemaViolation) {
		t.Fatalf("missing score: error = %v, want ErrSchemaViolation", err)
	}
	if _, err := gemini.ParseGradeEnvelope(`not json`); !errors.Is(err, gemini.ErrMalformedResponse) {
		t.Fatalf("garbage: error = %v, want ErrMalformedResponse", err)
	}
}
