package announce

import (
	"time"

	"github.com/trezcool/darasa/core"
)

type Announcement struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewAnnouncement contains information needed to post an Announcement to a class.
type NewAnnouncement struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	return core.Validate.Struct(na)
}
