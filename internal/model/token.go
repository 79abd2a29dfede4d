package model

import "time"

// ApprovalToken is a student's position in the LHC verification queue,
// stored in the `approval_tokens` table. TokenNumber is the total
// order key and must be unique among all live tokens. A token is
// claimed while VolunteerID is set; it leaves the active queue once
// the student's LHCDocsStatus flag turns true, but the row is never
// deleted and remains as history.
//
// Fields:
//  ID            – primary key identifier.
//  TokenNumber   – positive queue position number, unique.
//  StudentRollNo – roll number of the student this ticket belongs to.
//  VolunteerID   – verifying volunteer currently claiming the token,
//                  nil while unclaimed.
//  IsProcessing  – true while claimed and under active verification;
//                  mirrors VolunteerID being set.
//  CreatedAt     – timestamp of issuance.
type ApprovalToken struct {
	ID            uint64    // approval_tokens.id
	TokenNumber   int       // approval_tokens.token_number
	StudentRollNo string    // approval_tokens.student_roll_no
	VolunteerID   *uint64   // approval_tokens.volunteer_id (nullable)
	IsProcessing  bool      // approval_tokens.is_processing
	CreatedAt     time.Time // approval_tokens.created_at
}

// Claimed reports whether a volunteer currently holds this token.
func (t ApprovalToken) Claimed() bool { return t.VolunteerID != nil }

// DefaultSkipOffset is used when the settings row is absent.
const DefaultSkipOffset = 3

// Settings is the singleton configuration row. SkipOffset controls
// how many queue positions a skip pushes a stalled ticket backward.
type Settings struct {
	ID         uint64 // settings.id
	SkipOffset int    // settings.skip_offset
}
