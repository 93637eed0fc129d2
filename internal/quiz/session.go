package quiz

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MaxReferenceChars bounds the reference text handed to the grader.
const MaxReferenceChars = 100_000

// Percentage converts a cumulative score into a 0-100 figure rounded to two
// decimals. A quiz with no questions reports 0.
func Percentage(totalScore float64, questionCount int) float64 {
	if questionCount <= 0 {
		return 0.0
	}
	return math.Round(totalScore/float64(questionCount)*100*100) / 100
}

// BuildSession derives the live view of an attempt from its persisted parts.
// It is pure: same inputs, same session, no caching.
func BuildSession(a Attempt, questions []Question, answers []Answer) Session {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })

	byQuestion := make(map[int64]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	// current = first question with no answer or a blank one; if everything
	// is answered, stay on the last question.
	current := len(qs) - 1
	if current < 0 {
		current = 0
	}
	for i, q := range qs {
		ans, ok := byQuestion[q.ID]
		if !ok || strings.TrimSpace(ans.UserAnswer) == "" {
			current = i
			break
		}
	}

	sortedAnswers := make([]Answer, len(answers))
	copy(sortedAnswers, answers)
	sort.Slice(sortedAnswers, func(i, j int) bool {
		return sortedAnswers[i].QuestionID < sortedAnswers[j].QuestionID
	})

	return Session{
		ID:                   a.ID,
		QuizID:               a.QuizID,
		Status:               a.Status,
		StartedAt:            a.StartedAt,
		CompletedAt:          a.CompletedAt,
		TotalScore:           a.TotalScore,
		Percentage:           Percentage(a.TotalScore, len(qs)),
		CurrentQuestionIndex: current,
		Questions:            qs,
		Answers:              sortedAnswers,
	}
}

// BuildResult assembles the review view for a finished (or running) attempt.
func BuildResult(a Attempt, questions []Question, answers []Answer) Result {
	qs := make([]Question, len(questions))
	copy(qs, questions)
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })

	byQuestion := make(map[int64]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	items := make([]ResultQuestion, 0, len(qs))
	for _, q := range qs {
		ans := byQuestion[q.ID]
		item := ResultQuestion{
			QuestionID:    q.ID,
			Kind:          q.Kind,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
			UserAnswer:    ans.UserAnswer,
			Score:         ans.Score,
			AIFeedback:    ans.AIFeedback,
		}
		if q.Kind == KindMCQ {
			correct := ans.Score >= 1.0
			item.IsCorrect = &correct
		}
		items = append(items, item)
	}

	return Result{
		AttemptID:   a.ID,
		QuizID:      a.QuizID,
		Status:      a.Status,
		TotalScore:  a.TotalScore,
		Percentage:  Percentage(a.TotalScore, len(qs)),
		CompletedAt: a.CompletedAt,
		Questions:   items,
	}
}

// ReferenceText concatenates the quiz metadata with every question and its
// stored explanation, capped for prompt safety. The grader uses it as the
// source of truth for open answers.
func ReferenceText(q Quiz, questions []Question) string {
	var chunks []string
	if q.Title != "" {
		chunks = append(chunks, fmt.Sprintf("Quiz title: %s", q.Title))
	}
	if q.Subject != "" {
		chunks = append(chunks, fmt.Sprintf("Subject: %s", q.Subject))
	}
	if q.Description != "" {
		chunks = append(chunks, fmt.Sprintf("Description: %s", q.Description))
	}
	for _, question := range questions {
		chunks = append(chunks, fmt.Sprintf("Q: %s", question.QuestionText))
		if question.Explanation != "" {
			chunks = append(chunks, fmt.Sprintf("Reference explanation: %s", question.Explanation))
		}
	}
	text := strings.Join(chunks, "\n")
	if len(text) > MaxReferenceChars {
		text = text[:MaxReferenceChars]
	}
	return text
}
