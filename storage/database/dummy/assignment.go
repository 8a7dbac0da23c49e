package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRepository struct {
	assignments *assignmentTable
	submissions *submissionTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{
		assignments: db.assignment,
		submissions: db.submission,
	}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	asg.ID = uuid.New().String()
	repo.assignments.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	if asg, ok := repo.assignments.table[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter *assignment.QueryFilter, ordering []core.DBOrdering) ([]assignment.Assignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	asgs := make([]assignment.Assignment, 0, len(repo.assignments.table))
	for _, asg := range repo.assignments.table {
		if filter != nil && filter.ClassID != "" && asg.ClassID != filter.ClassID {
			continue
		}
		asgs = append(asgs, *asg)
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].DueAt.Before(asgs[j].DueAt) })
	return asgs, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	orig, ok := repo.assignments.table[asg.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	asg.ClassID = orig.ClassID
	asg.CreatedAt = orig.CreatedAt
	repo.assignments.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) (int, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.assignments.table[id]; !ok {
			continue
		}
		delete(repo.assignments.table, id)
		n++

		// cascade submissions
		repo.submissions.Lock()
		for sid, sub := range repo.submissions.table {
			if sub.AssignmentID == id {
				delete(repo.submissions.table, sid)
			}
		}
		repo.submissions.Unlock()
	}
	return n, nil
}

func (repo *assignmentRepository) CreateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	sub.ID = uuid.New().String()
	repo.submissions.table[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(ctx context.Context, id string) (assignment.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	if sub, ok := repo.submissions.table[id]; ok {
		return *sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) GetStudentSubmission(ctx context.Context, assignmentID, studentID string) (assignment.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	for _, sub := range repo.submissions.table {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			return *sub, nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]assignment.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	subs := make([]assignment.Submission, 0)
	for _, sub := range repo.submissions.table {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	if _, ok := repo.submissions.table[sub.ID]; !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	repo.submissions.table[sub.ID] = &sub
	return sub, nil
}
