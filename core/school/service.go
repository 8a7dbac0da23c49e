package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	ErrNotFound        = errors.New("class not found")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this class")
	ErrNotEnrolled     = errors.New("student is not enrolled in this class")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		// DeleteClassesByID also drops enrollments, quizzes and assignments hanging off the classes.
		DeleteClassesByID(ctx context.Context, ids ...string) (int, error)

		// CreateEnrollment returns ErrAlreadyEnrolled when (class, student) already exists.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, classID, studentID string) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, classID, studentID string) error
		QueryEnrollments(ctx context.Context, classID string) ([]Enrollment, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewClass) (Class, error)
		Get(ctx context.Context, id string) (Class, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Class, error)
		Update(ctx context.Context, id string, uc UpdateClass) (Class, error)
		Delete(ctx context.Context, ids ...string) error

		Enroll(ctx context.Context, classID, studentID string) (Enrollment, error)
		Unenroll(ctx context.Context, classID, studentID string) error
		IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
		Students(ctx context.Context, classID string) ([]user.User, error)
	}

	service struct {
		repo    Repository
		userSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service) Service {
	return &service{
		repo:    repo,
		userSvc: userSvc,
	}
}

func (svc *service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:        nc.Name,
		Description: nc.Description,
		MentorID:    nc.MentorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *service) Get(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls := Class{
		ID:          id,
		Name:        uc.Name,
		Description: uc.Description,
		MentorID:    uc.MentorID,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteClassesByID(ctx, ids...)
	return err
}

func (svc *service) Enroll(ctx context.Context, classID, studentID string) (Enrollment, error) {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.userSvc.GetByID(ctx, studentID); err != nil {
		return Enrollment{}, err
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		ClassID:   classID,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) Unenroll(ctx context.Context, classID, studentID string) error {
	return svc.repo.DeleteEnrollment(ctx, classID, studentID)
}

func (svc *service) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	if _, err := svc.repo.GetEnrollment(ctx, classID, studentID); err != nil {
		if errors.Cause(err) == ErrNotEnrolled {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (svc *service) Students(ctx context.Context, classID string) ([]user.User, error) {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	enrs, err := svc.repo.QueryEnrollments(ctx, classID)
	if err != nil {
		return nil, err
	}
	students := make([]user.User, 0, len(enrs))
	for _, enr := range enrs {
		usr, err := svc.userSvc.GetByID(ctx, enr.StudentID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return nil, err
		}
		students = append(students, usr)
	}
	return students, nil
}
