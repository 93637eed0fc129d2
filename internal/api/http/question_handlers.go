package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/quiz-arena/quiz-arena/internal/quiz"
)

type questionPayload struct {
	Kind          *string        `json:"kind"`
	QuestionText  *string        `json:"question_text"`
	Options       *[]quiz.Option `json:"options"`
	CorrectOption *string        `json:"correct_option"`
	Explanation   *string        `json:"explanation"`
}

func ListQuestionsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := pathID(r, "quizID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		questions, err := store.ListQuestions(r.Context(), quizID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": questions})
	}
}

func CreateQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := pathID(r, "quizID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req questionPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q := quiz.Question{QuizID: quizID}
		if req.Kind != nil {
			q.Kind = *req.Kind
		}
		if req.QuestionText != nil {
			q.QuestionText = *req.QuestionText
		}
		if req.Options != nil {
			q.Options = *req.Options
		}
		if req.CorrectOption != nil {
			q.CorrectOption = *req.CorrectOption
		}
		if req.Explanation != nil {
			q.Explanation = *req.Explanation
		}
		if err := validateQuestionShape(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, err := store.CreateQuestion(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req questionPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		updated, err := store.UpdateQuestion(r.Context(), id, quiz.QuestionUpdate{
			Kind:          req.Kind,
			QuestionText:  req.QuestionText,
			Options:       req.Options,
			CorrectOption: req.CorrectOption,
			Explanation:   req.Explanation,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteQuestionHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// validateQuestionShape enforces the MCQ/open structural rules at the API
// boundary: MCQs need 2+ options and a correct key matching one of them;
// open questions never carry either.
func validateQuestionShape(q *quiz.Question) error {
	switch q.Kind {
	case quiz.KindMCQ:
		if len(q.Options) < 2 {
			return errBadQuestion("MCQ questions require at least 2 options")
		}
		keys := map[string]bool{}
		for _, opt := range q.Options {
			keys[opt.Key] = true
		}
		if q.CorrectOption == "" || !keys[q.CorrectOption] {
			return errBadQuestion("MCQ questions require correct_option to match one option key")
		}
	case quiz.KindOpen:
		q.Options = nil
		q.CorrectOption = ""
	default:
		return errBadQuestion("kind must be mcq or open")
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return errBadQuestion("question_text required")
	}
	return nil
}

type errBadQuestion string

func (e errBadQuestion) Error() string { return string(e) }
