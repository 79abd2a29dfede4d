package repository

import (
	"context"
	"database/sql"
	"time"
)

// RefreshTokenRepo persists and validates refresh tokens for both
// student and staff sessions. Only the SHA-256 hash of a token is
// stored; the account role travels with the row so a refreshed access
// token keeps the same role claim.
type RefreshTokenRepo struct{ DB *sql.DB }

// NewRefreshTokenRepo returns a RefreshTokenRepo bound to the given database.
func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Store inserts a refresh token hash row.
func (r *RefreshTokenRepo) Store(ctx context.Context, accountID uint64, role, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (account_id, account_role, token_hash, expires_at) VALUES (?,?,?,?)",
		accountID, role, tokenHash, exp)
	return err
}

// Validate returns the account ID and role if a non-revoked,
// non-expired token exists for the hash.
func (r *RefreshTokenRepo) Validate(ctx context.Context, tokenHash string) (uint64, string, error) {
	var (
		accountID uint64
		role      string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT account_id, account_role, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&accountID, &role, &expiresAt, &revokedAt)
	if err != nil {
		return 0, "", err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, "", sql.ErrNoRows
	}
	return accountID, role, nil
}

// RevokeByHash marks a token as revoked.
func (r *RefreshTokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForAccount revokes every active token for an account.
func (r *RefreshTokenRepo) RevokeAllForAccount(ctx context.Context, accountID uint64, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE account_id=? AND account_role=? AND revoked_at IS NULL",
		accountID, role)
	return err
}
