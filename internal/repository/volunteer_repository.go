package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campusarrival/arrival-portal/internal/model"
	"github.com/campusarrival/arrival-portal/internal/utils"
)

// VolunteerRepo provides account operations over the volunteers table.
// Passwords are stored bcrypt hashed; the earlier portal compared
// credentials in plaintext, which this layer deliberately does not
// reproduce.
type VolunteerRepo struct{ DB *sql.DB }

// NewVolunteerRepo returns a VolunteerRepo bound to the given database.
func NewVolunteerRepo(db *sql.DB) *VolunteerRepo { return &VolunteerRepo{DB: db} }

const volunteerCols = "id, username, password_hash, role, can_verify_lhc, is_available, created_at"

func scanVolunteer(row interface{ Scan(...any) error }) (model.Volunteer, error) {
	var v model.Volunteer
	err := row.Scan(&v.ID, &v.Username, &v.PasswordHash, &v.Role,
		&v.CanVerifyLHC, &v.IsAvailable, &v.CreatedAt)
	return v, err
}

// Create inserts a volunteer account and returns its ID.
func (r *VolunteerRepo) Create(ctx context.Context, username, password, role string, canVerifyLHC bool, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO volunteers (username, password_hash, role, can_verify_lhc) VALUES (?,?,?,?)",
		username, hash, role, canVerifyLHC)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a volunteer by normalized username.
func (r *VolunteerRepo) GetByUsername(ctx context.Context, username string) (model.Volunteer, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return scanVolunteer(r.DB.QueryRowContext(ctx,
		"SELECT "+volunteerCols+" FROM volunteers WHERE username=? LIMIT 1", username))
}

// GetByID fetches a volunteer by id.
func (r *VolunteerRepo) GetByID(ctx context.Context, id uint64) (model.Volunteer, error) {
	return scanVolunteer(r.DB.QueryRowContext(ctx,
		"SELECT "+volunteerCols+" FROM volunteers WHERE id=? LIMIT 1", id))
}

// List returns all volunteer accounts ordered by username.
func (r *VolunteerRepo) List(ctx context.Context) ([]model.Volunteer, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+volunteerCols+" FROM volunteers ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	vols := make([]model.Volunteer, 0)
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		vols = append(vols, v)
	}
	return vols, rows.Err()
}

// SetAvailability toggles whether auto-assignment considers the volunteer.
func (r *VolunteerRepo) SetAvailability(ctx context.Context, id uint64, available bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE volunteers SET is_available=? WHERE id=?", available, id)
	return err
}

// Update modifies a volunteer's role and capability flag.
func (r *VolunteerRepo) Update(ctx context.Context, id uint64, role string, canVerifyLHC bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE volunteers SET role=?, can_verify_lhc=? WHERE id=?", role, canVerifyLHC, id)
	return err
}

// Delete removes a volunteer account.
func (r *VolunteerRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM volunteers WHERE id=?", id)
	return err
}
