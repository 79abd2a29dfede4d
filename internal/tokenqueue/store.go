package tokenqueue

import (
	"context"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// Store is the persistence collaborator the queue manager depends on.
// It requires only per-entity create/read/update operations filtered
// by equality and ordering; no transactions or joins beyond what the
// repositories already expose. The MySQL repositories satisfy it in
// production and an in-memory double satisfies it in tests.
//
// Ordering contract: AllTokens and ActiveTokens return rows ascending
// by token number. ActiveTokens restricts to tokens whose student has
// not completed LHC verification.
type Store interface {
	StudentByRollNo(ctx context.Context, rollNo string) (model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	SetTokenAssigned(ctx context.Context, rollNo string, assigned bool) error
	MarkStudentVerified(ctx context.Context, rollNo string) error

	AllTokens(ctx context.Context) ([]model.ApprovalToken, error)
	ActiveTokens(ctx context.Context) ([]model.ApprovalToken, error)
	TokenByID(ctx context.Context, id uint64) (model.ApprovalToken, error)
	TokenByStudent(ctx context.Context, rollNo string) (*model.ApprovalToken, error)
	UnfinishedTokenByVolunteer(ctx context.Context, volunteerID uint64) (*model.ApprovalToken, error)
	CreateToken(ctx context.Context, t *model.ApprovalToken) error
	SetTokenNumber(ctx context.Context, tokenID uint64, number int) error
	ClaimToken(ctx context.Context, tokenID, volunteerID uint64) (bool, error)
	ReleaseToken(ctx context.Context, tokenID uint64) error

	VolunteerByID(ctx context.Context, id uint64) (model.Volunteer, error)
	SkipOffset(ctx context.Context) (int, error)
}

// Entry pairs an active-queue token with its student for display.
// Claimable entries are those with no volunteer attached.
type Entry struct {
	Token   model.ApprovalToken `json:"token"`
	Student model.Student       `json:"student"`
}

// Claimable reports whether the entry is waiting for a volunteer.
func (e Entry) Claimable() bool { return !e.Token.Claimed() }
