package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

type classRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	MentorID    string    `db:"mentor_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r classRow) toClass() school.Class {
	return school.Class{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		MentorID:    r.MentorID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type enrollmentRow struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	StudentID string    `db:"student_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r enrollmentRow) toEnrollment() school.Enrollment {
	return school.Enrollment{
		ID:        r.ID,
		ClassID:   r.ClassID,
		StudentID: r.StudentID,
		CreatedAt: r.CreatedAt,
	}
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	cls.ID = uuid.New().String()
	query := `
INSERT INTO class (id, name, description, mentor_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query, cls.ID, cls.Name, cls.Description, cls.MentorID, cls.CreatedAt, cls.UpdatedAt)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	var row classRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		return school.Class{}, trapNoRowsErr(errors.Wrap(err, "getting class"), school.ErrNotFound)
	}
	return row.toClass(), nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]school.Class, error) {
	query := `SELECT * FROM class`
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		if filter.MentorID != "" {
			args = append(args, filter.MentorID)
			query += ` WHERE mentor_id = $1`
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			cond := `id IN (SELECT class_id FROM enrollment WHERE student_id = $` + itoa(len(args)) + `)`
			if len(args) == 1 {
				query += ` WHERE ` + cond
			} else {
				query += ` AND ` + cond
			}
		}
	}
	query += orderingClause(ordering, "created_at DESC")

	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	return classes, nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	orig, err := repo.GetClass(ctx, cls.ID)
	if err != nil {
		return school.Class{}, err
	}
	cls.CreatedAt = orig.CreatedAt

	query := `
UPDATE class
SET name = $2, description = $3, mentor_id = $4, updated_at = $5
WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, query, cls.ID, cls.Name, cls.Description, cls.MentorID, cls.UpdatedAt)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	return cls, nil
}

func (repo *schoolRepository) DeleteClassesByID(ctx context.Context, ids ...string) (int, error) {
	// enrollments, quizzes, assignments and announcements cascade
	res, err := repo.db.ExecContext(ctx, `DELETE FROM class WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting classes")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	enr.ID = uuid.New().String()
	query := `
INSERT INTO enrollment (id, class_id, student_id, created_at)
VALUES ($1, $2, $3, $4)`
	_, err := repo.db.ExecContext(ctx, query, enr.ID, enr.ClassID, enr.StudentID, enr.CreatedAt)
	if err != nil {
		return school.Enrollment{}, trapUniqueErr(errors.Wrap(err, "creating enrollment"), "enrollment_class_id_student_id_key", school.ErrAlreadyEnrolled)
	}
	return enr, nil
}

func (repo *schoolRepository) GetEnrollment(ctx context.Context, classID, studentID string) (school.Enrollment, error) {
	var row enrollmentRow
	query := `SELECT * FROM enrollment WHERE class_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, query, classID, studentID); err != nil {
		return school.Enrollment{}, trapNoRowsErr(errors.Wrap(err, "getting enrollment"), school.ErrNotEnrolled)
	}
	return row.toEnrollment(), nil
}

func (repo *schoolRepository) DeleteEnrollment(ctx context.Context, classID, studentID string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM enrollment WHERE class_id = $1 AND student_id = $2`, classID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrNotEnrolled
	}
	return nil
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context, classID string) ([]school.Enrollment, error) {
	var rows []enrollmentRow
	query := `SELECT * FROM enrollment WHERE class_id = $1 ORDER BY created_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]school.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.toEnrollment())
	}
	return enrs, nil
}
