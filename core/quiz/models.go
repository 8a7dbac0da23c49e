package quiz

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Quiz statuses (mentor-controlled publication flag)
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Question types
const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionEssay          = "essay"
)

// Attempt statuses
const (
	AttemptInProgress = "in_progress"
	AttemptFinished   = "finished"
)

type Quiz struct {
	ID               string    `json:"id"`
	ClassID          string    `json:"class_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	OpenAt           time.Time `json:"open_at"`  // UTC; attempts may start from here...
	CloseAt          time.Time `json:"close_at"` // UTC; ...until here
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	AttemptsAllowed  int       `json:"attempts_allowed"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

func (q *Quiz) IsOpen() bool { return q.Status == StatusOpen }

// WindowContains reports whether attempts may be started at t.
func (q *Quiz) WindowContains(t time.Time) bool {
	return !t.Before(q.OpenAt) && !t.After(q.CloseAt)
}

// TimeLimit is the per-attempt duration cap.
func (q *Quiz) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitMinutes) * time.Minute
}

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID       string   `json:"id"`
	QuizID   string   `json:"quiz_id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Position int      `json:"position"`
	Options  []Option `json:"options,omitempty"` // multiple choice only
}

// CorrectOption returns the first option marked correct.
func (q *Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

type Attempt struct {
	ID         string       `json:"id"`
	QuizID     string       `json:"quiz_id"`
	StudentID  string       `json:"student_id"`
	Status     string       `json:"status"`
	Score      null.Float32 `json:"score"` // set once finished
	StartedAt  time.Time    `json:"started_at"` // UTC
	FinishedAt null.Time    `json:"finished_at"`
}

func (a *Attempt) Finished() bool { return a.Status == AttemptFinished }

// Deadline is the instant past which the attempt may no longer be touched.
func (a *Attempt) Deadline(q Quiz) time.Time {
	return a.StartedAt.Add(q.TimeLimit())
}

func (a *Attempt) DeadlineElapsed(q Quiz, now time.Time) bool {
	return now.After(a.Deadline(q))
}

type Answer struct {
	ID         string    `json:"id"`
	AttemptID  string    `json:"attempt_id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"` // selected option text for multiple choice
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewQuiz contains information needed to create a new Quiz. Mentor-facing.
type NewQuiz struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description"`
	OpenAt           time.Time `json:"open_at" validate:"required"`
	CloseAt          time.Time `json:"close_at" validate:"required,gtfield=OpenAt"`
	TimeLimitMinutes int       `json:"time_limit_minutes" validate:"required,min=1"`
	AttemptsAllowed  int       `json:"attempts_allowed" validate:"required,min=1"`
	Status           string    `json:"status" validate:"omitempty,oneof=open closed"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	if nq.Status == "" {
		nq.Status = StatusOpen
	}
	return core.Validate.Struct(nq)
}

// UpdateQuiz defines what information may be provided to modify an existing Quiz.
type UpdateQuiz struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	OpenAt           time.Time `json:"open_at"`
	CloseAt          time.Time `json:"close_at"`
	TimeLimitMinutes int       `json:"time_limit_minutes" validate:"omitempty,min=1"`
	AttemptsAllowed  int       `json:"attempts_allowed" validate:"omitempty,min=1"`
	Status           string    `json:"status" validate:"omitempty,oneof=open closed"`
}

func (uq *UpdateQuiz) Validate(orig Quiz) error {
	if title := core.CleanString(uq.Title); title != "" {
		uq.Title = title
	} else {
		uq.Title = orig.Title
	}
	if uq.Description = core.CleanString(uq.Description); uq.Description == "" {
		uq.Description = orig.Description
	}
	if uq.OpenAt.IsZero() {
		uq.OpenAt = orig.OpenAt
	}
	if uq.CloseAt.IsZero() {
		uq.CloseAt = orig.CloseAt
	}
	if uq.TimeLimitMinutes == 0 {
		uq.TimeLimitMinutes = orig.TimeLimitMinutes
	}
	if uq.AttemptsAllowed == 0 {
		uq.AttemptsAllowed = orig.AttemptsAllowed
	}
	if uq.Status == "" {
		uq.Status = orig.Status
	}
	if err := core.Validate.Struct(uq); err != nil {
		return err
	}
	if !uq.CloseAt.After(uq.OpenAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "close_at", Error: "must be after open_at"})
	}
	return nil
}

// NewOption is one candidate option of a new multiple choice question.
type NewOption struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// NewQuestion contains information needed to add a Question to a Quiz. Mentor-facing.
type NewQuestion struct {
	Text     string      `json:"text" validate:"required"`
	Type     string      `json:"type" validate:"required,oneof=multiple_choice essay"`
	Position int         `json:"position" validate:"min=0"`
	Options  []NewOption `json:"options" validate:"dive"`
}

func (nq *NewQuestion) Validate() error {
	nq.Text = core.CleanString(nq.Text)
	for i := range nq.Options {
		nq.Options[i].Text = core.CleanString(nq.Options[i].Text)
	}
	return core.Validate.Struct(nq)
}

// NewAnswer is a student's answer submission for one question.
type NewAnswer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Text       string `json:"text" validate:"required"`
}

func (na *NewAnswer) Validate() error {
	na.Text = core.CleanString(na.Text)
	return core.Validate.Struct(na)
}

type QueryFilter struct {
	ClassID string `query:"class_id"`
	Status  string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.ClassID == "" && qf.Status == "" }
