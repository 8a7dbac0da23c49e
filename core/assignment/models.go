package assignment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Assignment struct {
	ID          string    `json:"id"`
	ClassID     string    `json:"class_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MaxPoints   int       `json:"max_points"`
	DueAt       time.Time `json:"due_at"`     // UTC
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// PastDue reports whether the submission window has elapsed at t.
func (a *Assignment) PastDue(t time.Time) bool { return t.After(a.DueAt) }

type Submission struct {
	ID           string       `json:"id"`
	AssignmentID string       `json:"assignment_id"`
	StudentID    string       `json:"student_id"`
	Content      string       `json:"content"`
	Grade        null.Float32 `json:"grade"`    // set once graded
	Feedback     string       `json:"feedback"` // mentor's comments, set on grading
	SubmittedAt  time.Time    `json:"submitted_at"` // UTC
	GradedAt     null.Time    `json:"graded_at"`
}

func (s *Submission) Graded() bool { return s.Grade.Valid }

// NewAssignment contains information needed to create a new Assignment. Mentor-facing.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	MaxPoints   int       `json:"max_points" validate:"required,min=1"`
	DueAt       time.Time `json:"due_at" validate:"required"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
type UpdateAssignment struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MaxPoints   int       `json:"max_points" validate:"omitempty,min=1"`
	DueAt       time.Time `json:"due_at"`
}

func (ua *UpdateAssignment) Validate(orig Assignment) error {
	if title := core.CleanString(ua.Title); title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	if ua.Description = core.CleanString(ua.Description); ua.Description == "" {
		ua.Description = orig.Description
	}
	if ua.MaxPoints == 0 {
		ua.MaxPoints = orig.MaxPoints
	}
	if ua.DueAt.IsZero() {
		ua.DueAt = orig.DueAt
	}
	return core.Validate.Struct(ua)
}

// NewSubmission is a student's work for an assignment.
type NewSubmission struct {
	Content string `json:"content" validate:"required"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.CleanString(ns.Content)
	return core.Validate.Struct(ns)
}

// NewGrade is a mentor's grade and feedback for a submission.
type NewGrade struct {
	Grade    float32 `json:"grade" validate:"min=0"`
	Feedback string  `json:"feedback"`
}

func (ng *NewGrade) Validate(asg Assignment) error {
	ng.Feedback = core.CleanString(ng.Feedback)
	if err := core.Validate.Struct(ng); err != nil {
		return err
	}
	if ng.Grade > float32(asg.MaxPoints) {
		return core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "cannot exceed the assignment's max points"})
	}
	return nil
}

type QueryFilter struct {
	ClassID string `query:"class_id"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.ClassID == "" }
