package repository

import (
	"context"
	"database/sql"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// ContentRepo covers the simple content tables shown on the student
// dashboard: FAQs, announcements and campus locations. These are plain
// per-entity CRUD operations with no business rules.
type ContentRepo struct{ DB *sql.DB }

// NewContentRepo returns a ContentRepo bound to the given database.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{DB: db} }

// ListFAQs returns all FAQ entries in insertion order.
func (r *ContentRepo) ListFAQs(ctx context.Context) ([]model.FAQ, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, question, answer FROM faqs ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	faqs := make([]model.FAQ, 0)
	for rows.Next() {
		var f model.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer); err != nil {
			return nil, err
		}
		faqs = append(faqs, f)
	}
	return faqs, rows.Err()
}

// CreateFAQ inserts a question/answer pair and returns its ID.
func (r *ContentRepo) CreateFAQ(ctx context.Context, question, answer string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO faqs (question, answer) VALUES (?,?)", question, answer)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// DeleteFAQ removes an FAQ entry.
func (r *ContentRepo) DeleteFAQ(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM faqs WHERE id=?", id)
	return err
}

// ListAnnouncements returns announcements newest first.
func (r *ContentRepo) ListAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, message FROM announcements ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	anns := make([]model.Announcement, 0)
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Message); err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

// CreateAnnouncement inserts a broadcast message and returns its ID.
func (r *ContentRepo) CreateAnnouncement(ctx context.Context, message string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO announcements (message) VALUES (?)", message)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// DeleteAnnouncement removes an announcement.
func (r *ContentRepo) DeleteAnnouncement(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM announcements WHERE id=?", id)
	return err
}

// ListLocations returns all campus locations ordered by name.
func (r *ContentRepo) ListLocations(ctx context.Context) ([]model.Location, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, map_link FROM locations ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locs := make([]model.Location, 0)
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.MapLink); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// CreateLocation inserts a named location with a map link.
func (r *ContentRepo) CreateLocation(ctx context.Context, name, mapLink string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO locations (name, map_link) VALUES (?,?)", name, mapLink)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// DeleteLocation removes a location.
func (r *ContentRepo) DeleteLocation(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM locations WHERE id=?", id)
	return err
}
