package quiz_test

import (
	"strings"
	"testing"

	"github.com/quiz-arena/quiz-arena/internal/quiz"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		name  string
		total float64
		count int
		want  float64
	}{
		{"empty quiz", 0, 0, 0},
		{"perfect", 3, 3, 100},
		{"two thirds rounds", 2, 3, 66.67},
		{"one third rounds", 1, 3, 33.33},
		{"half", 1.5, 3, 50},
		{"zero score", 0, 5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := quiz.Percentage(tc.total, tc.count); got != tc.want {
				t.Fatalf("Percentage(%v, %d) = %v, want %v", tc.total, tc.count, got, tc.want)
			}
		})
	}
}

func threeQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: 11, QuizID: 1, Kind: quiz.KindMCQ, QuestionText: "q1", CorrectOption: "A"},
		{ID: 12, QuizID: 1, Kind: quiz.KindMCQ, QuestionText: "q2", CorrectOption: "B"},
		{ID: 13, QuizID: 1, Kind: quiz.KindOpen, QuestionText: "q3"},
	}
}

func TestBuildSessionCurrentIndexFirstUnanswered(t *testing.T) {
	attempt := quiz.Attempt{ID: 5, QuizID: 1, Status: quiz.StatusInProgress}
	answers := []quiz.Answer{{QuestionID: 11, UserAnswer: "A", Score: 1}}

	s := quiz.BuildSession(attempt, threeQuestions(), answers)
	if s.CurrentQuestionIndex != 1 {
		t.Fatalf("current index = %d, want 1", s.CurrentQuestionIndex)
	}
}

func TestBuildSessionBlankAnswerCountsAsUnanswered(t *testing.T) {
	attempt := quiz.Attempt{ID: 5, QuizID: 1, Status: quiz.StatusInProgress}
	answers := []quiz.Answer{
		{QuestionID: 11, UserAnswer: "A", Score: 1},
		{QuestionID: 12, UserAnswer: "   "},
		{QuestionID: 13, UserAnswer: "essay text", Score: 0.5},
	}

	s := quiz.BuildSession(attempt, threeQuestions(), answers)
	if s.CurrentQuestionIndex != 1 {
		t.Fatalf("current index = %d, want 1 (blank answer)", s.CurrentQuestionIndex)
	}
}

func TestBuildSessionAllAnsweredStaysOnLast(t *testing.T) {
	attempt := quiz.Attempt{ID: 5, QuizID: 1, Status: quiz.StatusInProgress, TotalScore: 2.5}
	answers := []quiz.Answer{
		{QuestionID: 11, UserAnswer: "A", Score: 1},
		{QuestionID: 12, UserAnswer: "B", Score: 1},
		{QuestionID: 13, UserAnswer: "essay", Score: 0.5},
	}

	s := quiz.BuildSession(attempt, threeQuestions(), answers)
	if s.CurrentQuestionIndex != 2 {
		t.Fatalf("current index = %d, want 2", s.CurrentQuestionIndex)
	}
	if s.Percentage != 83.33 {
		t.Fatalf("percentage = %v, want 83.33", s.Percentage)
	}
}

func TestBuildSessionEmptyQuiz(t *testing.T) {
	attempt := quiz.Attempt{ID: 5, QuizID: 1, Status: quiz.StatusInProgress}
	s := quiz.BuildSession(attempt, nil, nil)
	if s.CurrentQuestionIndex != 0 {
		t.Fatalf("current index = %d, want 0", s.CurrentQuestionIndex)
	}
	if s.Percentage != 0 {
		t.Fatalf("percentage = %v, want 0", s.Percentage)
	}
}

func TestBuildSessionSortsQuestionsByID(t *testing.T) {
	attempt := quiz.Attempt{ID: 5, QuizID: 1}
	questions := []quiz.Question{
		{ID: 30, Kind: quiz.KindMCQ, QuestionText: "later"},
		{ID: 10, Kind: quiz.KindMCQ, QuestionText: "earlier"},
	}
	s := quiz.BuildSession(attempt, questions, nil)
	if s.Questions[0].ID != 10 || s.Questions[1].ID != 30 {
		t.Fatalf("questions not sorted: %v, %v", s.Questions[0].ID, s.Questions[1].ID)
	}
}

func TestBuildResultIsCorrectOnlyForMCQ(t *testing.T) {
	done := int64(1700000000)
	attempt := quiz.Attempt{ID: 5, QuizID: 1, Status: quiz.StatusCompleted, TotalScore: 2, CompletedAt: &done}
	answers := []quiz.Answer{
		{QuestionID: 11, UserAnswer: "A", Score: 1},
		{QuestionID: 12, UserAnswer: "C", Score: 0},
		{QuestionID: 13, UserAnswer: "essay", Score: 1},
	}

	res := quiz.BuildResult(attempt, threeQuestions(), answers)
	if len(res.Questions) != 3 {
		t.Fatalf("result rows = %d, want 3", len(res.Questions))
	}
	if res.Questions[0].IsCorrect == nil || !*res.Questions[0].IsCorrect {
		t.Fatalf("q1 should be marked correct")
	}
	if res.Questions[1].IsCorrect == nil || *res.Questions[1].IsCorrect {
		t.Fatalf("q2 should be marked incorrect")
	}
	if res.Questions[2].IsCorrect != nil {
		t.Fatalf("open questions must not carry is_correct")
	}
	if res.Percentage != 66.67 {
		t.Fatalf("percentage = %v, want 66.67", res.Percentage)
	}
}

func TestReferenceTextContent(t *testing.T) {
	q := quiz.Quiz{Title: "Cells", Subject: "Biology", Description: "Intro unit"}
	questions := []quiz.Question{
		{QuestionText: "What is a ribosome?", Explanation: "Ribosomes build proteins."},
		{QuestionText: "Name one organelle."},
	}
	text := quiz.ReferenceText(q, questions)
	for _, want := range []string{
		"Quiz title: Cells",
		"Subject: Biology",
		"Description: Intro unit",
		"Q: What is a ribosome?",
		"Reference explanation: Ribosomes build proteins.",
		"Q: Name one organelle.",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("reference text missing %q:\n%s", want, text)
		}
	}
}

func TestReferenceTextCapped(t *testing.T) {
	q := quiz.Quiz{Title: "Big"}
	questions := []quiz.Question{{QuestionText: strings.Repeat("x", quiz.MaxReferenceChars+500)}}
	text := quiz.ReferenceText(q, questions)
	if len(text) != quiz.MaxReferenceChars {
		t.Fatalf("len = %d, want %d", len(text), quiz.MaxReferenceChars)
	}
}
