package model

import "time"

// Role names stored in the volunteers.role column and embedded in JWT
// claims. Students authenticate separately by roll number and carry
// the STUDENT role in their tokens only.
const (
	RoleStudent   = "STUDENT"
	RoleVolunteer = "VOLUNTEER"
	RoleAdmin     = "ADMIN"
)

// Volunteer represents a staff account in the `volunteers` table.
// Admins are volunteers with the ADMIN role. Only volunteers with
// CanVerifyLHC participate in token claiming and auto-assignment,
// and only while IsAvailable is set.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – VOLUNTEER or ADMIN.
//  CanVerifyLHC – capability flag for LHC document verification.
//  IsAvailable  – availability toggle controlled by the volunteer.
//  CreatedAt    – timestamp of creation.
type Volunteer struct {
	ID           uint64    // volunteers.id
	Username     string    // volunteers.username
	PasswordHash string    // volunteers.password_hash
	Role         string    // volunteers.role
	CanVerifyLHC bool      // volunteers.can_verify_lhc
	IsAvailable  bool      // volunteers.is_available
	CreatedAt    time.Time // volunteers.created_at
}
