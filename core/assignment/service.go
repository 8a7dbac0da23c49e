package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	NowFunc = time.Now // mockable

	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrPastDue            = errors.New("assignment is past due")
	ErrAlreadyGraded      = errors.New("submission has already been graded")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) (int, error)

		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// GetStudentSubmission returns a student's submission for an assignment, or ErrSubmissionNotFound.
		GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	Service interface {
		Create(ctx context.Context, classID string, na NewAssignment) (Assignment, error)
		Get(ctx context.Context, id string) (Assignment, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Assignment, error)
		Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, ids ...string) error

		// Submit records a student's work; resubmitting replaces the content until graded.
		Submit(ctx context.Context, assignmentID, studentID string, ns NewSubmission) (Submission, error)
		StudentSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		Submission(ctx context.Context, id string) (Submission, error)
		Submissions(ctx context.Context, assignmentID string) ([]Submission, error)
		Grade(ctx context.Context, submissionID string, ng NewGrade) (Submission, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, classID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		ClassID:     classID,
		Title:       na.Title,
		Description: na.Description,
		MaxPoints:   na.MaxPoints,
		DueAt:       na.DueAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) Get(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	asg := Assignment{
		ID:          id,
		Title:       ua.Title,
		Description: ua.Description,
		MaxPoints:   ua.MaxPoints,
		DueAt:       ua.DueAt.UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAssignmentsByID(ctx, ids...)
	return err
}

func (svc *service) Submit(ctx context.Context, assignmentID, studentID string, ns NewSubmission) (Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}

	now := NowFunc().UTC()
	if asg.PastDue(now) {
		return Submission{}, ErrPastDue
	}

	sub, err := svc.repo.GetStudentSubmission(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Cause(err) != ErrSubmissionNotFound {
			return Submission{}, err
		}
		return svc.repo.CreateSubmission(ctx, Submission{
			AssignmentID: assignmentID,
			StudentID:    studentID,
			Content:      ns.Content,
			SubmittedAt:  now,
		})
	}
	if sub.Graded() {
		return Submission{}, ErrAlreadyGraded
	}

	sub.Content = ns.Content
	sub.SubmittedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

func (svc *service) StudentSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error) {
	return svc.repo.GetStudentSubmission(ctx, assignmentID, studentID)
}

func (svc *service) Submission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *service) Submissions(ctx context.Context, assignmentID string) ([]Submission, error) {
	if _, err := svc.repo.GetAssignment(ctx, assignmentID); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubmissions(ctx, assignmentID)
}

func (svc *service) Grade(ctx context.Context, submissionID string, ng NewGrade) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	sub.Grade = null.Float32From(ng.Grade)
	sub.Feedback = ng.Feedback
	sub.GradedAt = null.TimeFrom(NowFunc().UTC())
	return svc.repo.UpdateSubmission(ctx, sub)
}
