package quiz

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrNoQuestions      = errors.New("quiz has no questions")
)

type ListOpts struct {
	Page     int
	PageSize int
}

// FileListOpts filters the file listing. With no folder and no search the
// listing is scoped to root-level files.
type FileListOpts struct {
	FolderID *int64
	Search   string
	Sort     string // name|date|size|type
}

type QuizPage struct {
	Items      []Quiz `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

type AttemptPage struct {
	Items    []AttemptSummary `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
}

type QuizUpdate struct {
	Title       *string
	Subject     *string
	Description *string
}

type QuestionUpdate struct {
	Kind          *string
	QuestionText  *string
	Options       *[]Option // nil pointer = untouched; pointer to nil/empty = clear
	CorrectOption *string
	Explanation   *string
}

type Store interface {
	CreateQuiz(ctx context.Context, title, subject, description string) (Quiz, error)
	GetQuiz(ctx context.Context, id int64) (Quiz, error)
	ListQuizzes(ctx context.Context, opts ListOpts) (QuizPage, error)
	UpdateQuiz(ctx context.Context, id int64, upd QuizUpdate) (Quiz, error)
	DeleteQuiz(ctx context.Context, id int64) error

	ListQuestions(ctx context.Context, quizID int64) ([]Question, error)
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	UpdateQuestion(ctx context.Context, id int64, upd QuestionUpdate) (Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	// ReplaceQuestions wipes the quiz's question set and inserts the given
	// questions in order. Used after generation.
	ReplaceQuestions(ctx context.Context, quizID int64, qs []Question) ([]Question, error)

	// CreateOrResumeAttempt returns the newest in_progress attempt for the
	// quiz when resume is true and one exists; otherwise it creates a new
	// attempt.
	CreateOrResumeAttempt(ctx context.Context, quizID int64, resume bool) (Attempt, error)
	GetAttempt(ctx context.Context, id int64) (Attempt, error)
	ListAttempts(ctx context.Context, quizID int64, opts ListOpts) (AttemptPage, error)
	GetAnswers(ctx context.Context, attemptID int64) ([]Answer, error)
	// UpsertAnswer writes the graded answer for (attempt, question); the
	// UNIQUE constraint makes concurrent submissions last-write-wins.
	UpsertAnswer(ctx context.Context, attemptID, questionID int64, userAnswer string, score float64, feedback string) (Answer, error)
	// CompleteAttempt freezes total_score at the current answer sum and sets
	// completed_at. Completing a completed attempt changes nothing.
	CompleteAttempt(ctx context.Context, attemptID int64) (Attempt, error)

	ListFolders(ctx context.Context, parentID *int64) ([]Folder, error)
	GetFolder(ctx context.Context, id int64) (Folder, error)
	CreateFolder(ctx context.Context, name string, parentID *int64) (Folder, error)
	RenameFolder(ctx context.Context, id int64, name string) (Folder, error)
	DeleteFolder(ctx context.Context, id int64) error

	ListFiles(ctx context.Context, opts FileListOpts) ([]File, error)
	GetFile(ctx context.Context, id int64) (File, error)
	CreateFile(ctx context.Context, f File) (File, error)
	DeleteFile(ctx context.Context, id int64) error
}
