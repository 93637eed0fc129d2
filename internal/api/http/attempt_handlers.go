package http

import (
	"encoding/json"
	"net/http"

	"github.com/quiz-arena/quiz-arena/internal/grading"
	"github.com/quiz-arena/quiz-arena/internal/quiz"
)

func CreateAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := pathID(r, "quizID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req := struct {
			ResumeIfExists *bool `json:"resume_if_exists"`
		}{}
		// body is optional; resume defaults to true
		_ = json.NewDecoder(r.Body).Decode(&req)
		resume := req.ResumeIfExists == nil || *req.ResumeIfExists

		a, err := store.CreateOrResumeAttempt(r.Context(), quizID, resume)
		if err != nil {
			writeError(w, err)
			return
		}
		session, err := loadSession(r, store, a)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

func ListAttemptsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := pathID(r, "quizID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		page, err := store.ListAttempts(r.Context(), quizID, pageOpts(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func GetAttemptSessionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, err := pathID(r, "attemptID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		session, err := loadSession(r, store, a)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// UpsertAnswerHandler grades and persists one answer. Safe to call
// repeatedly for the same question; the newest submission wins.
func UpsertAnswerHandler(store quiz.Store, grader grading.Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, err := pathID(r, "attemptID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		questionID, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req struct {
			UserAnswer string `json:"user_answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		if a.Status == quiz.StatusCompleted {
			http.Error(w, "attempt is already completed", http.StatusBadRequest)
			return
		}

		q, err := store.GetQuiz(r.Context(), a.QuizID)
		if err != nil {
			writeError(w, err)
			return
		}
		questions, err := store.ListQuestions(r.Context(), a.QuizID)
		if err != nil {
			writeError(w, err)
			return
		}
		var question *quiz.Question
		for i := range questions {
			if questions[i].ID == questionID {
				question = &questions[i]
				break
			}
		}
		if question == nil {
			http.Error(w, "question not found for this attempt", http.StatusNotFound)
			return
		}

		res, err := grader.Grade(r.Context(), grading.Input{
			Kind:          question.Kind,
			QuestionText:  question.QuestionText,
			UserAnswer:    req.UserAnswer,
			CorrectOption: question.CorrectOption,
			Explanation:   question.Explanation,
			ReferenceText: quiz.ReferenceText(q, questions),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		if _, err := store.UpsertAnswer(r.Context(), attemptID, questionID, req.UserAnswer, res.Score, res.Feedback); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"score":       res.Score,
			"ai_feedback": res.Feedback,
			"graded_by":   res.GradedBy,
		})
	}
}

func CompleteAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, err := pathID(r, "attemptID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a, err := store.CompleteAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		questions, err := store.ListQuestions(r.Context(), a.QuizID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total_score":  a.TotalScore,
			"percentage":   quiz.Percentage(a.TotalScore, len(questions)),
			"completed_at": a.CompletedAt,
		})
	}
}

func GetAttemptResultsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, err := pathID(r, "attemptID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		questions, err := store.ListQuestions(r.Context(), a.QuizID)
		if err != nil {
			writeError(w, err)
			return
		}
		answers, err := store.GetAnswers(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.BuildResult(a, questions, answers))
	}
}

func loadSession(r *http.Request, store quiz.Store, a quiz.Attempt) (quiz.Session, error) {
	questions, err := store.ListQuestions(r.Context(), a.QuizID)
	if err != nil {
		return quiz.Session{}, err
	}
	answers, err := store.GetAnswers(r.Context(), a.ID)
	if err != nil {
		return quiz.Session{}, err
	}
	return quiz.BuildSession(a, questions, answers), nil
}
