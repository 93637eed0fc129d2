package http

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/quiz-arena/quiz-arena/internal/extract"
	"github.com/quiz-arena/quiz-arena/internal/gemini"
	"github.com/quiz-arena/quiz-arena/internal/quiz"
)

// GenerateQuestionsHandler accepts a multipart upload, extracts its text and
// replaces the quiz's question set with generated questions. Fields:
// file (required), mcq_count, open_count, difficulty.
func GenerateQuestionsHandler(store quiz.Store, svc *gemini.Service, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizID, err := pathID(r, "quizID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q, err := store.GetQuiz(r.Context(), quizID)
		if err != nil {
			writeError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return
		}
		mcqCount := parseIntDefault(r.FormValue("mcq_count"), 5)
		openCount := parseIntDefault(r.FormValue("open_count"), 2)
		difficulty := r.FormValue("difficulty")
		if difficulty == "" {
			difficulty = "intermediate"
		}
		if mcqCount < 0 || mcqCount > 50 || openCount < 0 || openCount > 50 {
			http.Error(w, "mcq_count and open_count must be between 0 and 50", http.StatusBadRequest)
			return
		}
		if mcqCount+openCount <= 0 {
			http.Error(w, "at least one question must be requested", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		ext, err := extract.ValidateFilename(header.Filename)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Printf("event=generation_request_start quiz_id=%d filename=%s mcq_count=%d open_count=%d",
			quizID, header.Filename, mcqCount, openCount)

		sourceText, truncated, err := extractUpload(file, ext)
		if err != nil {
			log.Printf("event=file_extraction_failed quiz_id=%d filename=%s err=%v", quizID, header.Filename, err)
			http.Error(w, "failed to parse uploaded file", http.StatusBadRequest)
			return
		}
		if sourceText == "" {
			http.Error(w, "uploaded file produced no extractable text", http.StatusBadRequest)
			return
		}

		generated, latencyMs, err := svc.GenerateQuestions(r.Context(), gemini.GenerateParams{
			SourceText: sourceText,
			Title:      q.Title,
			MCQCount:   mcqCount,
			OpenCount:  openCount,
			Difficulty: difficulty,
		})
		if err != nil {
			log.Printf("event=generation_failed quiz_id=%d err=%v", quizID, err)
			http.Error(w, "failed to generate quiz questions", http.StatusBadGateway)
			return
		}

		log.Printf("event=generation_request_complete quiz_id=%d question_count=%d llm_latency_ms=%d truncated=%t",
			quizID, len(generated), latencyMs, truncated)

		persisted, err := store.ReplaceQuestions(r.Context(), quizID, toQuestions(quizID, generated))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"created_count":  len(persisted),
			"questions":      persisted,
			"llm_latency_ms": latencyMs,
		})
	}
}

// extractUpload spools the upload through a temp file so the extractors can
// work from a path; the temp file never outlives the request.
func extractUpload(file io.Reader, ext string) (string, bool, error) {
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		return "", false, err
	}
	if err := tmp.Close(); err != nil {
		return "", false, err
	}
	return extract.Text(tmp.Name(), ext)
}

// toQuestions converts engine output into persistable records, assigning
// A-D keys to MCQ options.
func toQuestions(quizID int64, generated []gemini.GeneratedQuestion) []quiz.Question {
	keys := []string{"A", "B", "C", "D"}
	out := make([]quiz.Question, 0, len(generated))
	for _, g := range generated {
		q := quiz.Question{
			QuizID:       quizID,
			Kind:         g.Kind,
			QuestionText: g.QuestionText,
			Explanation:  g.Explanation,
		}
		if g.Kind == quiz.KindMCQ {
			for i, opt := range g.Options {
				if i >= len(keys) {
					break
				}
				q.Options = append(q.Options, quiz.Option{Key: keys[i], Text: opt})
			}
			q.CorrectOption = g.CorrectOption
		}
		out = append(out, q)
	}
	return out
}
