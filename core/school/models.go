package school

import (
	"time"

	"github.com/trezcool/darasa/core"
)

type Class struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MentorID    string    `json:"mentor_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Enrollment struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	MentorID    string `json:"mentor_id" validate:"required"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MentorID    string `json:"mentor_id"`
}

func (uc *UpdateClass) Validate(orig Class) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.Description = core.CleanString(uc.Description); uc.Description == "" {
		uc.Description = orig.Description
	}
	if uc.MentorID == "" {
		uc.MentorID = orig.MentorID
	}
	return core.Validate.Struct(uc)
}

type QueryFilter struct {
	MentorID  string `query:"mentor_id"`
	StudentID string `query:"student_id"`
}

func (qf *QueryFilter) IsEmpty() bool { return qf.MentorID == "" && qf.StudentID == "" }
