package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/quiz-arena/quiz-arena/internal/gemini"
	"github.com/quiz-arena/quiz-arena/internal/quiz"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// statusFor maps engine/store errors onto HTTP statuses: missing rows are
// 404, caller mistakes 400, and a terminal generation failure surfaces as a
// gateway error so clients know to retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrAttemptCompleted), errors.Is(err, quiz.ErrNoQuestions):
		return http.StatusBadRequest
	case errors.Is(err, gemini.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return id, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func pageOpts(r *http.Request) quiz.ListOpts {
	return quiz.ListOpts{
		Page:     parseIntDefault(r.URL.Query().Get("page"), 1),
		PageSize: parseIntDefault(r.URL.Query().Get("page_size"), 10),
	}
}
