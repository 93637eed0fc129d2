package quiz

const (
	KindMCQ  = "mcq"
	KindOpen = "open"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type Question struct {
	ID            int64    `json:"id"`
	QuizID        int64    `json:"quiz_id"`
	Kind          string   `json:"kind"` // mcq|open
	QuestionText  string   `json:"question_text"`
	Options       []Option `json:"options,omitempty"`        // mcq only
	CorrectOption string   `json:"correct_option,omitempty"` // mcq only: A|B|C|D
	Explanation   string   `json:"explanation"`
}

type Quiz struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`

	QuestionCount int      `json:"question_count"`
	AttemptCount  int      `json:"attempt_count"`
	BestScore     *float64 `json:"best_score,omitempty"` // best completed percentage
}

type Attempt struct {
	ID          int64   `json:"id"`
	QuizID      int64   `json:"quiz_id"`
	Status      string  `json:"status"` // in_progress|completed
	StartedAt   int64   `json:"started_at"`
	CompletedAt *int64  `json:"completed_at,omitempty"`
	TotalScore  float64 `json:"total_score"`
}

type Answer struct {
	QuestionID int64   `json:"question_id"`
	UserAnswer string  `json:"user_answer"`
	Score      float64 `json:"score"`
	AIFeedback string  `json:"ai_feedback,omitempty"`
	UpdatedAt  int64   `json:"updated_at"`
}

// Session is the live view of one attempt: the quiz's questions, whatever
// answers have been persisted, and derived progress fields. It is rebuilt
// on every read and never stored.
type Session struct {
	ID                   int64      `json:"id"`
	QuizID               int64      `json:"quiz_id"`
	Status               string     `json:"status"`
	StartedAt            int64      `json:"started_at"`
	CompletedAt          *int64     `json:"completed_at,omitempty"`
	TotalScore           float64    `json:"total_score"`
	Percentage           float64    `json:"percentage"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	Questions            []Question `json:"questions"`
	Answers              []Answer   `json:"answers"`
}

type AttemptSummary struct {
	ID          int64   `json:"id"`
	QuizID      int64   `json:"quiz_id"`
	Status      string  `json:"status"`
	StartedAt   int64   `json:"started_at"`
	CompletedAt *int64  `json:"completed_at,omitempty"`
	TotalScore  float64 `json:"total_score"`
	Percentage  float64 `json:"percentage"`
}

// ResultQuestion is one row of a finished attempt's review screen: the
// question with its key revealed plus the user's graded answer.
type ResultQuestion struct {
	QuestionID    int64    `json:"question_id"`
	Kind          string   `json:"kind"`
	QuestionText  string   `json:"question_text"`
	Options       []Option `json:"options,omitempty"`
	CorrectOption string   `json:"correct_option,omitempty"`
	Explanation   string   `json:"explanation"`
	UserAnswer    string   `json:"user_answer"`
	Score         float64  `json:"score"`
	AIFeedback    string   `json:"ai_feedback,omitempty"`
	IsCorrect     *bool    `json:"is_correct,omitempty"` // nil for open questions
}

type Result struct {
	AttemptID   int64            `json:"attempt_id"`
	QuizID      int64            `json:"quiz_id"`
	Status      string           `json:"status"`
	TotalScore  float64          `json:"total_score"`
	Percentage  float64          `json:"percentage"`
	CompletedAt *int64           `json:"completed_at,omitempty"`
	Questions   []ResultQuestion `json:"questions"`
}

type Folder struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type File struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	StoredName string `json:"stored_name"`
	FolderID   *int64 `json:"folder_id,omitempty"`
	FileType   string `json:"file_type"`
	SizeBytes  int64  `json:"size_bytes"`
	MimeType   string `json:"mime_type"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}
