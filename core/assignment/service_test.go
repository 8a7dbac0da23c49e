package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var (
	ctx = context.Background()

	now = time.Date(2021, 5, 10, 10, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) assignment.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	assignment.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { assignment.NowFunc = time.Now })
	return assignment.NewService(dummydb.NewAssignmentRepository(db))
}

func createAssignment(t *testing.T, svc assignment.Service, title string, dueAt time.Time) assignment.Assignment {
	t.Helper()

	asg, err := svc.Create(ctx, "class1", assignment.NewAssignment{
		Title:     title,
		MaxPoints: 20,
		DueAt:     dueAt,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return asg
}

func Test_service_Submit(t *testing.T) {
	svc := setup(t)

	asg := createAssignment(t, svc, "Dissertation", now.Add(24*time.Hour))
	pastDueAsg := createAssignment(t, svc, "Old homework", now.Add(-time.Hour))

	// first submission creates
	sub, err := svc.Submit(ctx, asg.ID, "std1", assignment.NewSubmission{Content: "first draft"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if sub.Content != "first draft" {
		t.Errorf("Submit() content = %s, want %q", sub.Content, "first draft")
	}
	if !sub.SubmittedAt.Equal(now) {
		t.Errorf("Submit() submitted_at = %v, want %v", sub.SubmittedAt, now)
	}

	// resubmitting replaces the content on the same submission
	resub, err := svc.Submit(ctx, asg.ID, "std1", assignment.NewSubmission{Content: "final draft"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if resub.ID != sub.ID {
		t.Errorf("Submit() created a new submission %s, want %s", resub.ID, sub.ID)
	}
	if resub.Content != "final draft" {
		t.Errorf("Submit() content = %s, want %q", resub.Content, "final draft")
	}

	// graded submissions are frozen
	if _, err = svc.Grade(ctx, sub.ID, assignment.NewGrade{Grade: 15}); err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if _, err = svc.Submit(ctx, asg.ID, "std1", assignment.NewSubmission{Content: "sneaky edit"}); err != assignment.ErrAlreadyGraded {
		t.Errorf("Submit() error = %v, wantErr %v", err, assignment.ErrAlreadyGraded)
	}

	// past due assignments refuse submissions
	if _, err = svc.Submit(ctx, pastDueAsg.ID, "std1", assignment.NewSubmission{Content: "too late"}); err != assignment.ErrPastDue {
		t.Errorf("Submit() error = %v, wantErr %v", err, assignment.ErrPastDue)
	}

	if _, err = svc.Submit(ctx, "nope", "std1", assignment.NewSubmission{Content: "lost"}); err != assignment.ErrNotFound {
		t.Errorf("Submit() error = %v, wantErr %v", err, assignment.ErrNotFound)
	}
}

func Test_service_Grade(t *testing.T) {
	svc := setup(t)

	asg := createAssignment(t, svc, "Dissertation", now.Add(24*time.Hour))

	sub, err := svc.Submit(ctx, asg.ID, "std1", assignment.NewSubmission{Content: "my work"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	graded, err := svc.Grade(ctx, sub.ID, assignment.NewGrade{Grade: 17.5, Feedback: "solid argument, weak conclusion"})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if !graded.Graded() {
		t.Error("Grade() submission not marked graded")
	}
	if graded.Grade.Float32 != 17.5 {
		t.Errorf("Grade() grade = %v, want 17.5", graded.Grade.Float32)
	}
	if graded.Feedback != "solid argument, weak conclusion" {
		t.Errorf("Grade() feedback = %q, want the mentor's comments", graded.Feedback)
	}
	if !graded.GradedAt.Time.Equal(now) {
		t.Errorf("Grade() graded_at = %v, want %v", graded.GradedAt.Time, now)
	}

	if _, err = svc.Grade(ctx, "nope", assignment.NewGrade{Grade: 10}); err != assignment.ErrSubmissionNotFound {
		t.Errorf("Grade() error = %v, wantErr %v", err, assignment.ErrSubmissionNotFound)
	}
}

func TestNewGrade_Validate(t *testing.T) {
	asg := assignment.Assignment{MaxPoints: 20}

	tests := []struct {
		name    string
		grade   float32
		wantErr bool
	}{
		{name: "ok", grade: 15},
		{name: "zero", grade: 0},
		{name: "max", grade: 20},
		{name: "exceeds max points", grade: 20.5, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ng := assignment.NewGrade{Grade: tt.grade}
			if err := ng.Validate(asg); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_service_StudentSubmission(t *testing.T) {
	svc := setup(t)

	asg := createAssignment(t, svc, "Dissertation", now.Add(24*time.Hour))

	if _, err := svc.StudentSubmission(ctx, asg.ID, "std1"); err != assignment.ErrSubmissionNotFound {
		t.Fatalf("StudentSubmission() error = %v, wantErr %v", err, assignment.ErrSubmissionNotFound)
	}

	sub, err := svc.Submit(ctx, asg.ID, "std1", assignment.NewSubmission{Content: "my work"})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	got, err := svc.StudentSubmission(ctx, asg.ID, "std1")
	if err != nil {
		t.Fatalf("StudentSubmission() failed: %v", err)
	}
	if got.ID != sub.ID {
		t.Errorf("StudentSubmission() = %s, want %s", got.ID, sub.ID)
	}
}
