package announce

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

var ErrNotFound = errors.New("announcement not found")

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		GetAnnouncement(ctx context.Context, id string) (Announcement, error)
		// QueryAnnouncements returns a class's announcements, newest first.
		QueryAnnouncements(ctx context.Context, classID string) ([]Announcement, error)
		DeleteAnnouncementsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service interface {
		// Create posts an announcement and mails it to the class's enrolled students.
		Create(ctx context.Context, classID, authorID string, na NewAnnouncement) (Announcement, error)
		Get(ctx context.Context, id string) (Announcement, error)
		Query(ctx context.Context, classID string) ([]Announcement, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo      Repository
		schoolSvc school.Service
		mailSvc   core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schoolSvc school.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:      repo,
		schoolSvc: schoolSvc,
		mailSvc:   mailSvc,
	}
}

func (svc *service) Create(ctx context.Context, classID, authorID string, na NewAnnouncement) (Announcement, error) {
	cls, err := svc.schoolSvc.Get(ctx, classID)
	if err != nil {
		return Announcement{}, err
	}

	ann, err := svc.repo.CreateAnnouncement(ctx, Announcement{
		ClassID:   classID,
		AuthorID:  authorID,
		Title:     na.Title,
		Body:      na.Body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Announcement{}, err
	}

	if err := svc.broadcast(ctx, cls, ann); err != nil {
		return Announcement{}, errors.Wrap(err, "broadcasting announcement")
	}
	return ann, nil
}

func (svc *service) Get(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncement(ctx, id)
}

func (svc *service) Query(ctx context.Context, classID string) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, classID)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAnnouncementsByID(ctx, ids...)
	return err
}

func (svc *service) broadcast(ctx context.Context, cls school.Class, ann Announcement) error {
	students, err := svc.schoolSvc.Students(ctx, cls.ID)
	if err != nil {
		return err
	}

	msgs := make([]*core.EmailMessage, 0, len(students))
	for _, std := range students {
		if !std.Active() {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: std.Name, Address: std.Email}},
			Subject:      core.Conf.AppName + ": " + ann.Title,
			TemplateName: "announcement",
			TemplateData: struct {
				ClassName string
				Title     string
				Body      string
			}{
				ClassName: cls.Name,
				Title:     ann.Title,
				Body:      ann.Body,
			},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
	return nil
}
