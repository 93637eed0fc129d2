package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/quiz-arena/quiz-arena/internal/api/http"
	"github.com/quiz-arena/quiz-arena/internal/config"
	"github.com/quiz-arena/quiz-arena/internal/db"
	"github.com/quiz-arena/quiz-arena/internal/gemini"
	"github.com/quiz-arena/quiz-arena/internal/grading"
	"github.com/quiz-arena/quiz-arena/internal/quiz"
	"github.com/quiz-arena/quiz-arena/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)

	// --- engine ---
	var client gemini.ModelClient
	if cfg.GeminiAPIKey != "" {
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini client: %v", err)
		}
		client = c
		log.Printf("generation: model-backed (%s)", cfg.GeminiModel)
	} else {
		log.Printf("generation: offline fallback (no GEMINI_API_KEY)")
	}
	svc := gemini.NewService(client)
	grader := grading.NewDefaultGrader(svc)

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/quizzes", api.ListQuizzesHandler(store))
		ar.Post("/quizzes", api.CreateQuizHandler(store))
		ar.Get("/quizzes/{quizID}", api.GetQuizHandler(store))
		ar.Patch("/quizzes/{quizID}", api.UpdateQuizHandler(store))
		ar.Delete("/quizzes/{quizID}", api.DeleteQuizHandler(store))

		ar.Get("/quizzes/{quizID}/questions", api.ListQuestionsHandler(store))
		ar.Post("/quizzes/{quizID}/questions", api.CreateQuestionHandler(store))
		ar.Patch("/questions/{questionID}", api.UpdateQuestionHandler(store))
		ar.Delete("/questions/{questionID}", api.DeleteQuestionHandler(store))

		ar.Post("/quizzes/{quizID}/generate", api.GenerateQuestionsHandler(store, svc, cfg.MaxUploadBytes))

		ar.Get("/quizzes/{quizID}/attempts", api.ListAttemptsHandler(store))
		ar.Post("/quizzes/{quizID}/attempts", api.CreateAttemptHandler(store))
		ar.Get("/attempts/{attemptID}", api.GetAttemptSessionHandler(store))
		ar.Put("/attempts/{attemptID}/answers/{questionID}", api.UpsertAnswerHandler(store, grader))
		ar.Post("/attempts/{attemptID}/complete", api.CompleteAttemptHandler(store))
		ar.Get("/attempts/{attemptID}/results", api.GetAttemptResultsHandler(store))

		ar.Get("/folders", api.ListFoldersHandler(store))
		ar.Post("/folders", api.CreateFolderHandler(store))
		ar.Get("/folders/{folderID}", api.GetFolderHandler(store))
		ar.Patch("/folders/{folderID}", api.RenameFolderHandler(store))
		ar.Delete("/folders/{folderID}", api.DeleteFolderHandler(store))

		ar.Get("/files", api.ListFilesHandler(store))
		ar.Post("/files/upload", api.UploadFileHandler(store, blobs, cfg.MaxUploadBytes))
		ar.Get("/files/{fileID}/download", api.DownloadFileHandler(store, blobs))
		ar.Delete("/files/{fileID}", api.DeleteFileHandler(store, blobs))
	})

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
