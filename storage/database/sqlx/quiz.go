package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

// optionsJSON stores a question's options as a JSONB column.
type optionsJSON []quiz.Option

func (o optionsJSON) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

func (o *optionsJSON) Scan(src interface{}) error {
	if src == nil {
		*o = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.New("scanning question options: unexpected source type")
	}
	return json.Unmarshal(data, o)
}

type quizRow struct {
	ID               string    `db:"id"`
	ClassID          string    `db:"class_id"`
	Title            string    `db:"title"`
	Description      string    `db:"description"`
	OpenAt           time.Time `db:"open_at"`
	CloseAt          time.Time `db:"close_at"`
	TimeLimitMinutes int       `db:"time_limit_minutes"`
	AttemptsAllowed  int       `db:"attempts_allowed"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r quizRow) toQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:               r.ID,
		ClassID:          r.ClassID,
		Title:            r.Title,
		Description:      r.Description,
		OpenAt:           r.OpenAt,
		CloseAt:          r.CloseAt,
		TimeLimitMinutes: r.TimeLimitMinutes,
		AttemptsAllowed:  r.AttemptsAllowed,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type questionRow struct {
	ID       string      `db:"id"`
	QuizID   string      `db:"quiz_id"`
	Text     string      `db:"text"`
	Type     string      `db:"type"`
	Position int         `db:"position"`
	Options  optionsJSON `db:"options"`
}

func (r questionRow) toQuestion() quiz.Question {
	return quiz.Question{
		ID:       r.ID,
		QuizID:   r.QuizID,
		Text:     r.Text,
		Type:     r.Type,
		Position: r.Position,
		Options:  r.Options,
	}
}

type attemptRow struct {
	ID         string       `db:"id"`
	QuizID     string       `db:"quiz_id"`
	StudentID  string       `db:"student_id"`
	Status     string       `db:"status"`
	Score      null.Float32 `db:"score"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt null.Time    `db:"finished_at"`
}

func (r attemptRow) toAttempt() quiz.Attempt {
	return quiz.Attempt{
		ID:         r.ID,
		QuizID:     r.QuizID,
		StudentID:  r.StudentID,
		Status:     r.Status,
		Score:      r.Score,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

type answerRow struct {
	ID         string    `db:"id"`
	AttemptID  string    `db:"attempt_id"`
	QuestionID string    `db:"question_id"`
	Text       string    `db:"text"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r answerRow) toAnswer() quiz.Answer {
	return quiz.Answer{
		ID:         r.ID,
		AttemptID:  r.AttemptID,
		QuestionID: r.QuestionID,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt,
	}
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	qz.ID = uuid.New().String()
	query := `
INSERT INTO quiz (id, class_id, title, description, open_at, close_at, time_limit_minutes, attempts_allowed, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		qz.ID, qz.ClassID, qz.Title, qz.Description, qz.OpenAt, qz.CloseAt,
		qz.TimeLimitMinutes, qz.AttemptsAllowed, qz.Status, qz.CreatedAt, qz.UpdatedAt)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "creating quiz")
	}
	return qz, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var row quizRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM quiz WHERE id = $1`, id); err != nil {
		return quiz.Quiz{}, trapNoRowsErr(errors.Wrap(err, "getting quiz"), quiz.ErrNotFound)
	}
	return row.toQuiz(), nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QueryFilter, ordering []core.DBOrdering) ([]quiz.Quiz, error) {
	query := `SELECT * FROM quiz`
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		if filter.ClassID != "" {
			args = append(args, filter.ClassID)
			query += ` WHERE class_id = $1`
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			if len(args) == 1 {
				query += ` WHERE status = $1`
			} else {
				query += ` AND status = $2`
			}
		}
	}
	query += orderingClause(ordering, "created_at DESC")

	var rows []quizRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.toQuiz())
	}
	return quizzes, nil
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	orig, err := repo.GetQuiz(ctx, qz.ID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	qz.ClassID = orig.ClassID
	qz.CreatedAt = orig.CreatedAt

	query := `
UPDATE quiz
SET title = $2, description = $3, open_at = $4, close_at = $5, time_limit_minutes = $6, attempts_allowed = $7, status = $8, updated_at = $9
WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, query,
		qz.ID, qz.Title, qz.Description, qz.OpenAt, qz.CloseAt, qz.TimeLimitMinutes, qz.AttemptsAllowed, qz.Status, qz.UpdatedAt)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "updating quiz")
	}
	return qz, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM quiz WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting quizzes")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, qst quiz.Question) (quiz.Question, error) {
	qst.ID = uuid.New().String()
	query := `
INSERT INTO question (id, quiz_id, text, type, position, options)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		qst.ID, qst.QuizID, qst.Text, qst.Type, qst.Position, optionsJSON(qst.Options))
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "creating question")
	}
	return qst, nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, id string) (quiz.Question, error) {
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM question WHERE id = $1`, id); err != nil {
		return quiz.Question{}, trapNoRowsErr(errors.Wrap(err, "getting question"), quiz.ErrQuestionNotFound)
	}
	return row.toQuestion(), nil
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	var rows []questionRow
	query := `SELECT * FROM question WHERE quiz_id = $1 ORDER BY position ASC, id ASC`
	if err := repo.db.SelectContext(ctx, &rows, query, quizID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toQuestion())
	}
	return questions, nil
}

func (repo *quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM question WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting questions")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *quizRepository) CreateAttempt(ctx context.Context, att quiz.Attempt) (quiz.Attempt, error) {
	att.ID = uuid.New().String()
	query := `
INSERT INTO quiz_attempt (id, quiz_id, student_id, status, score, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		att.ID, att.QuizID, att.StudentID, att.Status, att.Score, att.StartedAt, att.FinishedAt)
	if err != nil {
		// a concurrent start won the partial unique index; resume its attempt
		if isUniqueErr(err, "quiz_attempt_active_key") {
			return repo.GetActiveAttempt(ctx, att.QuizID, att.StudentID)
		}
		return quiz.Attempt{}, errors.Wrap(err, "creating attempt")
	}
	return att, nil
}

func (repo *quizRepository) GetAttempt(ctx context.Context, id string) (quiz.Attempt, error) {
	var row attemptRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM quiz_attempt WHERE id = $1`, id); err != nil {
		return quiz.Attempt{}, trapNoRowsErr(errors.Wrap(err, "getting attempt"), quiz.ErrAttemptNotFound)
	}
	return row.toAttempt(), nil
}

func (repo *quizRepository) GetActiveAttempt(ctx context.Context, quizID, studentID string) (quiz.Attempt, error) {
	var row attemptRow
	query := `SELECT * FROM quiz_attempt WHERE quiz_id = $1 AND student_id = $2 AND status = $3`
	err := repo.db.GetContext(ctx, &row, query, quizID, studentID, quiz.AttemptInProgress)
	if err != nil {
		return quiz.Attempt{}, trapNoRowsErr(errors.Wrap(err, "getting active attempt"), quiz.ErrAttemptNotFound)
	}
	return row.toAttempt(), nil
}

func (repo *quizRepository) CountAttempts(ctx context.Context, quizID, studentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM quiz_attempt WHERE quiz_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &count, query, quizID, studentID); err != nil {
		return 0, errors.Wrap(err, "counting attempts")
	}
	return count, nil
}

func (repo *quizRepository) QueryAttempts(ctx context.Context, quizID, studentID string) ([]quiz.Attempt, error) {
	query := `SELECT * FROM quiz_attempt WHERE quiz_id = $1`
	args := []interface{}{quizID}
	if studentID != "" {
		query += ` AND student_id = $2`
		args = append(args, studentID)
	}
	query += ` ORDER BY started_at ASC`

	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]quiz.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, row.toAttempt())
	}
	return attempts, nil
}

func (repo *quizRepository) UpdateAttempt(ctx context.Context, att quiz.Attempt) (quiz.Attempt, error) {
	query := `
UPDATE quiz_attempt
SET status = $2, score = $3, finished_at = $4
WHERE id = $1`
	_, err := repo.db.ExecContext(ctx, query, att.ID, att.Status, att.Score, att.FinishedAt)
	if err != nil {
		return quiz.Attempt{}, errors.Wrap(err, "updating attempt")
	}
	return att, nil
}

func (repo *quizRepository) CreateAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	ans.ID = uuid.New().String()
	query := `
INSERT INTO answer (id, attempt_id, question_id, text, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, query, ans.ID, ans.AttemptID, ans.QuestionID, ans.Text, ans.CreatedAt)
	if err != nil {
		return quiz.Answer{}, trapUniqueErr(errors.Wrap(err, "creating answer"), "answer_attempt_id_question_id_key", quiz.ErrDuplicateAnswer)
	}
	return ans, nil
}

func (repo *quizRepository) QueryAnswers(ctx context.Context, attemptID string) ([]quiz.Answer, error) {
	var rows []answerRow
	query := `SELECT * FROM answer WHERE attempt_id = $1 ORDER BY created_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, query, attemptID); err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}
	answers := make([]quiz.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.toAnswer())
	}
	return answers, nil
}
