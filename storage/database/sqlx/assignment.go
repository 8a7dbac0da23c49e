package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	ClassID     string    `db:"class_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	MaxPoints   int       `db:"max_points"`
	DueAt       time.Time `db:"due_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		ClassID:     r.ClassID,
		Title:       r.Title,
		Description: r.Description,
		MaxPoints:   r.MaxPoints,
		DueAt:       r.DueAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type submissionRow struct {
	ID           string       `db:"id"`
	AssignmentID string       `db:"assignment_id"`
	StudentID    string       `db:"student_id"`
	Content      string       `db:"content"`
	Grade        null.Float32 `db:"grade"`
	Feedback     string       `db:"feedback"`
	SubmittedAt  time.Time    `db:"submitted_at"`
	GradedAt     null.Time    `db:"graded_at"`
}

func (r submissionRow) toSubmission() assignment.Submission {
	return assignment.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Content:      r.Content,
		Grade:        r.Grade,
		Feedback:     r.Feedback,
		SubmittedAt:  r.SubmittedAt,
		GradedAt:     r.GradedAt,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	query := `
INSERT INTO assignment (id, class_id, title, description, max_points, due_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		asg.ID, asg.ClassID, asg.Title, asg.Description, asg.MaxPoints, asg.DueAt, asg.CreatedAt, asg.UpdatedAt)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(errors.Wrap(err, "getting assignment"), assignment.ErrNotFound)
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter *assignment.QueryFilter, ordering []core.DBOrdering) ([]assignment.Assignment, error) {
	query := `SELECT * FROM assignment`
	var args []interface{}
	if filter != nil && filter.ClassID != "" {
		args = append(args, filter.ClassID)
		query += ` WHERE class_id = $1`
	}
	query += orderingClause(ordering, "due_at ASC")

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		asgs = append(asgs, row.toAssignment())
	}
	return asgs, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	orig, err := repo.GetAssignment(ctx, asg.ID)
	if err != nil {
		return assignment.Assignment{}, err
	}
	asg.ClassID = orig.ClassID
	asg.CreatedAt = orig.CreatedAt

	query := `
UPDATE assignment
SET title = $2, description = $3, max_points = $4, due_at = $5, updated_at = $6
WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, query, asg.ID, asg.Title, asg.Description, asg.MaxPoints, asg.DueAt, asg.UpdatedAt)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting assignments")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	query := `
INSERT INTO submission (id, assignment_id, student_id, content, grade, feedback, submitted_at, graded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, sub.Grade, sub.Feedback, sub.SubmittedAt, sub.GradedAt)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, id string) (assignment.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM submission WHERE id = $1`, id); err != nil {
		return assignment.Submission{}, trapNoRowsErr(errors.Wrap(err, "getting submission"), assignment.ErrSubmissionNotFound)
	}
	return row.toSubmission(), nil
}

func (repo *assignmentRepository) GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	var row submissionRow
	query := `SELECT * FROM submission WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, assignmentID, studentID); err != nil {
		return assignment.Submission{}, trapNoRowsErr(errors.Wrap(err, "getting student submission"), assignment.ErrSubmissionNotFound)
	}
	return row.toSubmission(), nil
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.Submission, error) {
	var rows []submissionRow
	query := `SELECT * FROM submission WHERE assignment_id = $1 ORDER BY submitted_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]assignment.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toSubmission())
	}
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	query := `
UPDATE submission
SET content = $2, grade = $3, feedback = $4, submitted_at = $5, graded_at = $6
WHERE id = $1`
	_, err := repo.db.ExecContext(ctx, query, sub.ID, sub.Content, sub.Grade, sub.Feedback, sub.SubmittedAt, sub.GradedAt)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	return sub, nil
}
