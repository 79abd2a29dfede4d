package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// ApprovalTokenRepo persists approval tokens, the tickets that place
// students in the LHC verification queue. Token rows are never
// deleted; a completed token simply drops out of the active queue
// because the owning student's lhc_docs_status flag excludes it.
type ApprovalTokenRepo struct{ DB *sql.DB }

// NewApprovalTokenRepo returns an ApprovalTokenRepo bound to the given database.
func NewApprovalTokenRepo(db *sql.DB) *ApprovalTokenRepo { return &ApprovalTokenRepo{DB: db} }

const tokenCols = "t.id, t.token_number, t.student_roll_no, t.volunteer_id, t.is_processing, t.created_at"

func scanToken(row interface{ Scan(...any) error }) (model.ApprovalToken, error) {
	var (
		t   model.ApprovalToken
		vol sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.TokenNumber, &t.StudentRollNo, &vol, &t.IsProcessing, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if vol.Valid {
		id := uint64(vol.Int64)
		t.VolunteerID = &id
	}
	return t, nil
}

// Create inserts a token row. When VolunteerID is set the token is
// born claimed, which covers issuance by an available verifying
// volunteer picking up their own ticket.
func (r *ApprovalTokenRepo) Create(ctx context.Context, t *model.ApprovalToken) error {
	var vol interface{}
	if t.VolunteerID != nil {
		vol = *t.VolunteerID
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO approval_tokens (token_number, student_roll_no, volunteer_id, is_processing) VALUES (?,?,?,?)",
		t.TokenNumber, strings.ToUpper(strings.TrimSpace(t.StudentRollNo)), vol, t.IsProcessing)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// All returns every token row, history included, ascending by number.
func (r *ApprovalTokenRepo) All(ctx context.Context) ([]model.ApprovalToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tokenCols+" FROM approval_tokens t ORDER BY t.token_number ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTokens(rows)
}

// Active returns tokens whose student has not completed LHC document
// verification, ascending by token number. This is the active queue
// used for display and for skip arithmetic.
func (r *ApprovalTokenRepo) Active(ctx context.Context) ([]model.ApprovalToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+tokenCols+` FROM approval_tokens t
		 JOIN students s ON s.iat_roll_no = t.student_roll_no
		 WHERE s.lhc_docs_status = 0
		 ORDER BY t.token_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTokens(rows)
}

func collectTokens(rows *sql.Rows) ([]model.ApprovalToken, error) {
	tokens := make([]model.ApprovalToken, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// GetByID fetches a token by id.
func (r *ApprovalTokenRepo) GetByID(ctx context.Context, id uint64) (model.ApprovalToken, error) {
	return scanToken(r.DB.QueryRowContext(ctx,
		"SELECT "+tokenCols+" FROM approval_tokens t WHERE t.id=? LIMIT 1", id))
}

// ByStudent returns the token belonging to a roll number, or nil when
// none has ever been issued.
func (r *ApprovalTokenRepo) ByStudent(ctx context.Context, rollNo string) (*model.ApprovalToken, error) {
	rollNo = strings.ToUpper(strings.TrimSpace(rollNo))
	t, err := scanToken(r.DB.QueryRowContext(ctx,
		"SELECT "+tokenCols+" FROM approval_tokens t WHERE t.student_roll_no=? LIMIT 1", rollNo))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UnfinishedByVolunteer returns the volunteer's live claim: a token
// they hold whose student has not completed verification. Nil when
// the volunteer holds no such claim.
func (r *ApprovalTokenRepo) UnfinishedByVolunteer(ctx context.Context, volunteerID uint64) (*model.ApprovalToken, error) {
	t, err := scanToken(r.DB.QueryRowContext(ctx,
		`SELECT `+tokenCols+` FROM approval_tokens t
		 JOIN students s ON s.iat_roll_no = t.student_roll_no
		 WHERE t.volunteer_id=? AND s.lhc_docs_status = 0
		 LIMIT 1`, volunteerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Claim assigns a token to a volunteer only if it is currently
// unclaimed. The conditional update makes claiming atomic: two
// racing assignments cannot both succeed. It returns false when the
// token was already claimed by the time the write landed.
func (r *ApprovalTokenRepo) Claim(ctx context.Context, tokenID, volunteerID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE approval_tokens SET volunteer_id=?, is_processing=1 WHERE id=? AND volunteer_id IS NULL",
		volunteerID, tokenID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Release clears a token's claim. Used on verification completion and
// when a skip vacates the volunteer's slot.
func (r *ApprovalTokenRepo) Release(ctx context.Context, tokenID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE approval_tokens SET volunteer_id=NULL, is_processing=0 WHERE id=?", tokenID)
	return err
}

// SetNumber rewrites a token's queue number. Skip renumbering relies
// on the unique key on token_number: a colliding write fails with
// ErrConflict instead of silently corrupting the order.
func (r *ApprovalTokenRepo) SetNumber(ctx context.Context, tokenID uint64, number int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE approval_tokens SET token_number=? WHERE id=?", number, tokenID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrConflict
	}
	return err
}
