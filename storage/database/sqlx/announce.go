package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/announce"
)

type announcementRow struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	AuthorID  string    `db:"author_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}

func (r announcementRow) toAnnouncement() announce.Announcement {
	return announce.Announcement{
		ID:        r.ID,
		ClassID:   r.ClassID,
		AuthorID:  r.AuthorID,
		Title:     r.Title,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announce.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) announce.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announce.Announcement) (announce.Announcement, error) {
	ann.ID = uuid.New().String()
	query := `
INSERT INTO announcement (id, class_id, author_id, title, body, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query, ann.ID, ann.ClassID, ann.AuthorID, ann.Title, ann.Body, ann.CreatedAt)
	if err != nil {
		return announce.Announcement{}, errors.Wrap(err, "creating announcement")
	}
	return ann, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announce.Announcement, error) {
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM announcement WHERE id = $1`, id); err != nil {
		return announce.Announcement{}, trapNoRowsErr(errors.Wrap(err, "getting announcement"), announce.ErrNotFound)
	}
	return row.toAnnouncement(), nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, classID string) ([]announce.Announcement, error) {
	var rows []announcementRow
	query := `SELECT * FROM announcement WHERE class_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announce.Announcement, 0, len(rows))
	for _, row := range rows {
		anns = append(anns, row.toAnnouncement())
	}
	return anns, nil
}

func (repo *announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM announcement WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting announcements")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
