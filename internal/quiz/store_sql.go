package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func now() int64 { return time.Now().Unix() }

/* ---------------- quizzes ---------------- */

func (s *SQLStore) CreateQuiz(ctx context.Context, title, subject, description string) (Quiz, error) {
	if subject == "" {
		subject = "General"
	}
	ts := now()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO quizzes (title,subject,description,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		title, subject, description, ts, ts).Scan(&id)
	if err != nil {
		return Quiz{}, err
	}
	return s.GetQuiz(ctx, id)
}

func (s *SQLStore) GetQuiz(ctx context.Context, id int64) (Quiz, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,subject,COALESCE(description,''),created_at,updated_at FROM quizzes WHERE id=$1`, id)
	q, err := scanQuiz(row)
	if err != nil {
		return Quiz{}, err
	}
	if err := s.fillQuizStats(ctx, &q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) (QuizPage, error) {
	page, size := normalizePage(opts)
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`).Scan(&total); err != nil {
		return QuizPage{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,subject,COALESCE(description,''),created_at,updated_at
		 FROM quizzes ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		size, (page-1)*size)
	if err != nil {
		return QuizPage{}, err
	}
	defer rows.Close()

	items := make([]Quiz, 0, size)
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return QuizPage{}, err
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return QuizPage{}, err
	}
	for i := range items {
		if err := s.fillQuizStats(ctx, &items[i]); err != nil {
			return QuizPage{}, err
		}
	}
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	return QuizPage{Items: items, Page: page, PageSize: size, Total: total, TotalPages: totalPages}, nil
}

func (s *SQLStore) UpdateQuiz(ctx context.Context, id int64, upd QuizUpdate) (Quiz, error) {
	q, err := s.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if upd.Title != nil {
		q.Title = *upd.Title
	}
	if upd.Subject != nil {
		q.Subject = *upd.Subject
	}
	if upd.Description != nil {
		q.Description = *upd.Description
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE quizzes SET title=$1, subject=$2, description=$3, updated_at=$4 WHERE id=$5`,
		q.Title, q.Subject, q.Description, now(), id)
	if err != nil {
		return Quiz{}, err
	}
	return s.GetQuiz(ctx, id)
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLStore) fillQuizStats(ctx context.Context, q *Quiz) error {
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE quiz_id=$1`, q.ID).Scan(&q.QuestionCount); err != nil {
		return err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id=$1`, q.ID).Scan(&q.AttemptCount); err != nil {
		return err
	}
	q.BestScore = nil
	if q.QuestionCount == 0 {
		return nil
	}
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(total_score) FROM quiz_attempts WHERE quiz_id=$1 AND status='completed'`, q.ID).Scan(&best)
	if err != nil {
		return err
	}
	if best.Valid {
		pct := Percentage(best.Float64, q.QuestionCount)
		q.BestScore = &pct
	}
	return nil
}

/* ---------------- questions ---------------- */

func (s *SQLStore) ListQuestions(ctx context.Context, quizID int64) ([]Question, error) {
	if err := s.quizExists(ctx, quizID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,quiz_id,kind,question_text,options_json,correct_option,explanation
		 FROM questions WHERE quiz_id=$1 ORDER BY id ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	if err := s.quizExists(ctx, q.QuizID); err != nil {
		return Question{}, err
	}
	oj, co, err := encodeOptions(q)
	if err != nil {
		return Question{}, err
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO questions (quiz_id,kind,question_text,options_json,correct_option,explanation)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		q.QuizID, q.Kind, q.QuestionText, oj, co, q.Explanation).Scan(&id)
	if err != nil {
		return Question{}, err
	}
	return s.getQuestion(ctx, id)
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, id int64, upd QuestionUpdate) (Question, error) {
	q, err := s.getQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if upd.Kind != nil {
		q.Kind = *upd.Kind
	}
	if upd.QuestionText != nil {
		q.QuestionText = *upd.QuestionText
	}
	if upd.Options != nil {
		q.Options = *upd.Options
	}
	if upd.CorrectOption != nil {
		q.CorrectOption = *upd.CorrectOption
	}
	if upd.Explanation != nil {
		q.Explanation = *upd.Explanation
	}
	// open questions never carry options or a key
	if q.Kind == KindOpen {
		q.Options = nil
		q.CorrectOption = ""
	}
	oj, co, err := encodeOptions(q)
	if err != nil {
		return Question{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET kind=$1, question_text=$2, options_json=$3, correct_option=$4, explanation=$5 WHERE id=$6`,
		q.Kind, q.QuestionText, oj, co, q.Explanation, id)
	if err != nil {
		return Question{}, err
	}
	return s.getQuestion(ctx, id)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLStore) ReplaceQuestions(ctx context.Context, quizID int64, qs []Question) ([]Question, error) {
	if err := s.quizExists(ctx, quizID); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id=$1`, quizID); err != nil {
		return nil, err
	}
	for i := range qs {
		qs[i].QuizID = quizID
		oj, co, err := encodeOptions(qs[i])
		if err != nil {
			return nil, err
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO questions (quiz_id,kind,question_text,options_json,correct_option,explanation)
			 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
			quizID, qs[i].Kind, qs[i].QuestionText, oj, co, qs[i].Explanation).Scan(&qs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	// Re-read so the response reflects what a subsequent reader will see.
	return s.ListQuestions(ctx, quizID)
}

func (s *SQLStore) getQuestion(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,quiz_id,kind,question_text,options_json,correct_option,explanation
		 FROM questions WHERE id=$1`, id)
	return scanQuestion(row)
}

/* ---------------- attempts ---------------- */

func (s *SQLStore) CreateOrResumeAttempt(ctx context.Context, quizID int64, resume bool) (Attempt, error) {
	var qc int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE quiz_id=$1`, quizID).Scan(&qc); err != nil {
		return Attempt{}, err
	}
	if qc == 0 {
		if err := s.quizExists(ctx, quizID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, ErrNoQuestions
	}

	if resume {
		row := s.db.QueryRowContext(ctx,
			`SELECT id,quiz_id,status,started_at,completed_at,total_score FROM quiz_attempts
			 WHERE quiz_id=$1 AND status='in_progress' ORDER BY started_at DESC, id DESC LIMIT 1`, quizID)
		a, err := scanAttempt(row)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Attempt{}, err
		}
	}

	ts := now()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO quiz_attempts (quiz_id,status,started_at,total_score)
		 VALUES ($1,'in_progress',$2,0) RETURNING id`, quizID, ts).Scan(&id)
	if err != nil {
		return Attempt{}, err
	}
	return Attempt{ID: id, QuizID: quizID, Status: StatusInProgress, StartedAt: ts}, nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id int64) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,quiz_id,status,started_at,completed_at,total_score FROM quiz_attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) ListAttempts(ctx context.Context, quizID int64, opts ListOpts) (AttemptPage, error) {
	if err := s.quizExists(ctx, quizID); err != nil {
		return AttemptPage{}, err
	}
	page, size := normalizePage(opts)
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id=$1`, quizID).Scan(&total); err != nil {
		return AttemptPage{}, err
	}
	var qc int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE quiz_id=$1`, quizID).Scan(&qc); err != nil {
		return AttemptPage{}, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,quiz_id,status,started_at,completed_at,total_score FROM quiz_attempts
		 WHERE quiz_id=$1 ORDER BY started_at DESC, id DESC LIMIT $2 OFFSET $3`,
		quizID, size, (page-1)*size)
	if err != nil {
		return AttemptPage{}, err
	}
	defer rows.Close()

	items := make([]AttemptSummary, 0, size)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return AttemptPage{}, err
		}
		items = append(items, AttemptSummary{
			ID:          a.ID,
			QuizID:      a.QuizID,
			Status:      a.Status,
			StartedAt:   a.StartedAt,
			CompletedAt: a.CompletedAt,
			TotalScore:  a.TotalScore,
			Percentage:  Percentage(a.TotalScore, qc),
		})
	}
	if err := rows.Err(); err != nil {
		return AttemptPage{}, err
	}
	return AttemptPage{Items: items, Page: page, PageSize: size, Total: total}, nil
}

func (s *SQLStore) GetAnswers(ctx context.Context, attemptID int64) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id,user_answer,score,COALESCE(ai_feedback,''),updated_at
		 FROM attempt_answers WHERE attempt_id=$1 ORDER BY question_id ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.QuestionID, &a.UserAnswer, &a.Score, &a.AIFeedback, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, attemptID, questionID int64, userAnswer string, score float64, feedback string) (Answer, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Answer{}, err
	}
	if a.Status == StatusCompleted {
		return Answer{}, ErrAttemptCompleted
	}
	ts := now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempt_answers (attempt_id,question_id,user_answer,score,ai_feedback,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (attempt_id,question_id) DO UPDATE SET
		   user_answer=EXCLUDED.user_answer, score=EXCLUDED.score,
		   ai_feedback=EXCLUDED.ai_feedback, updated_at=EXCLUDED.updated_at`,
		attemptID, questionID, userAnswer, score, feedback, ts)
	if err != nil {
		return Answer{}, err
	}
	return Answer{QuestionID: questionID, UserAnswer: userAnswer, Score: score, AIFeedback: feedback, UpdatedAt: ts}, nil
}

func (s *SQLStore) CompleteAttempt(ctx context.Context, attemptID int64) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusCompleted {
		return a, nil
	}
	var total sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT SUM(score) FROM attempt_answers WHERE attempt_id=$1`, attemptID).Scan(&total); err != nil {
		return Attempt{}, err
	}
	ts := now()
	_, err = s.db.ExecContext(ctx,
		`UPDATE quiz_attempts SET status='completed', total_score=$1, completed_at=$2 WHERE id=$3`,
		total.Float64, ts, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, attemptID)
}

/* ---------------- folders ---------------- */

func (s *SQLStore) ListFolders(ctx context.Context, parentID *int64) ([]Folder, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id,name,parent_id,created_at,updated_at FROM folders WHERE parent_id IS NULL ORDER BY LOWER(name) ASC`)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id,name,parent_id,created_at,updated_at FROM folders WHERE parent_id=$1 ORDER BY LOWER(name) ASC`, *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetFolder(ctx context.Context, id int64) (Folder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,parent_id,created_at,updated_at FROM folders WHERE id=$1`, id)
	return scanFolder(row)
}

func (s *SQLStore) CreateFolder(ctx context.Context, name string, parentID *int64) (Folder, error) {
	if parentID != nil {
		if _, err := s.GetFolder(ctx, *parentID); err != nil {
			return Folder{}, err
		}
	}
	ts := now()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO folders (name,parent_id,created_at,updated_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		name, parentID, ts, ts).Scan(&id)
	if err != nil {
		return Folder{}, err
	}
	return s.GetFolder(ctx, id)
}

func (s *SQLStore) RenameFolder(ctx context.Context, id int64, name string) (Folder, error) {
	if _, err := s.GetFolder(ctx, id); err != nil {
		return Folder{}, err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE folders SET name=$1, updated_at=$2 WHERE id=$3`, name, now(), id)
	if err != nil {
		return Folder{}, err
	}
	return s.GetFolder(ctx, id)
}

func (s *SQLStore) DeleteFolder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM folders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

/* ---------------- files ---------------- */

func (s *SQLStore) ListFiles(ctx context.Context, opts FileListOpts) ([]File, error) {
	q := `SELECT id,name,stored_name,folder_id,file_type,size_bytes,mime_type,created_at,updated_at FROM files WHERE 1=1`
	var args []interface{}
	n := 0
	if opts.FolderID != nil {
		n++
		q += fmt.Sprintf(" AND folder_id=$%d", n)
		args = append(args, *opts.FolderID)
	} else if opts.Search == "" {
		q += " AND folder_id IS NULL"
	}
	if opts.Search != "" {
		n++
		q += fmt.Sprintf(" AND name LIKE $%d", n)
		args = append(args, "%"+opts.Search+"%")
	}
	// whitelisted sort clauses only
	switch opts.Sort {
	case "name":
		q += " ORDER BY LOWER(name) ASC"
	case "size":
		q += " ORDER BY size_bytes DESC"
	case "type":
		q += " ORDER BY file_type ASC"
	default:
		q += " ORDER BY created_at DESC"
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetFile(ctx context.Context, id int64) (File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,stored_name,folder_id,file_type,size_bytes,mime_type,created_at,updated_at FROM files WHERE id=$1`, id)
	return scanFile(row)
}

func (s *SQLStore) CreateFile(ctx context.Context, f File) (File, error) {
	ts := now()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO files (name,stored_name,folder_id,file_type,size_bytes,mime_type,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		f.Name, f.StoredName, f.FolderID, f.FileType, f.SizeBytes, f.MimeType, ts, ts).Scan(&id)
	if err != nil {
		return File{}, err
	}
	return s.GetFile(ctx, id)
}

func (s *SQLStore) DeleteFile(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

/* ---------------- helpers ---------------- */

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuiz(r rowScanner) (Quiz, error) {
	var q Quiz
	if err := r.Scan(&q.ID, &q.Title, &q.Subject, &q.Description, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrNotFound
		}
		return Quiz{}, err
	}
	return q, nil
}

func scanQuestion(r rowScanner) (Question, error) {
	var (
		q  Question
		oj sql.NullString
		co sql.NullString
	)
	if err := r.Scan(&q.ID, &q.QuizID, &q.Kind, &q.QuestionText, &oj, &co, &q.Explanation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	if oj.Valid && oj.String != "" {
		if err := json.Unmarshal([]byte(oj.String), &q.Options); err != nil {
			return Question{}, err
		}
	}
	if co.Valid {
		q.CorrectOption = co.String
	}
	return q, nil
}

func scanAttempt(r rowScanner) (Attempt, error) {
	var (
		a  Attempt
		ca sql.NullInt64
	)
	if err := r.Scan(&a.ID, &a.QuizID, &a.Status, &a.StartedAt, &ca, &a.TotalScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	if ca.Valid {
		a.CompletedAt = &ca.Int64
	}
	return a, nil
}

func scanFolder(r rowScanner) (Folder, error) {
	var (
		f   Folder
		pid sql.NullInt64
	)
	if err := r.Scan(&f.ID, &f.Name, &pid, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Folder{}, ErrNotFound
		}
		return Folder{}, err
	}
	if pid.Valid {
		f.ParentID = &pid.Int64
	}
	return f, nil
}

func scanFile(r rowScanner) (File, error) {
	var (
		f   File
		fid sql.NullInt64
	)
	if err := r.Scan(&f.ID, &f.Name, &f.StoredName, &fid, &f.FileType, &f.SizeBytes, &f.MimeType, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, err
	}
	if fid.Valid {
		f.FolderID = &fid.Int64
	}
	return f, nil
}

func (s *SQLStore) quizExists(ctx context.Context, id int64) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE id=$1`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func encodeOptions(q Question) (optionsJSON sql.NullString, correct sql.NullString, err error) {
	if q.Kind != KindMCQ {
		return sql.NullString{}, sql.NullString{}, nil
	}
	buf, err := json.Marshal(q.Options)
	if err != nil {
		return sql.NullString{}, sql.NullString{}, err
	}
	correct = sql.NullString{String: strings.ToUpper(strings.TrimSpace(q.CorrectOption)), Valid: q.CorrectOption != ""}
	return sql.NullString{String: string(buf), Valid: true}, correct, nil
}

func normalizePage(opts ListOpts) (page, size int) {
	page, size = opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 50 {
		size = 50
	}
	return page, size
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
