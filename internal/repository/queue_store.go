package repository

import (
	"context"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// QueueStore composes the entity repositories into the persistence
// collaborator consumed by the token queue manager. It is a thin
// delegation layer; all SQL lives in the individual repositories.
type QueueStore struct {
	Students   *StudentRepo
	Tokens     *ApprovalTokenRepo
	Volunteers *VolunteerRepo
	Settings   *SettingsRepo
}

// NewQueueStore builds a QueueStore over the given repositories.
func NewQueueStore(s *StudentRepo, t *ApprovalTokenRepo, v *VolunteerRepo, set *SettingsRepo) *QueueStore {
	return &QueueStore{Students: s, Tokens: t, Volunteers: v, Settings: set}
}

func (q *QueueStore) StudentByRollNo(ctx context.Context, rollNo string) (model.Student, error) {
	return q.Students.GetByRollNo(ctx, rollNo)
}

func (q *QueueStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	return q.Students.List(ctx)
}

func (q *QueueStore) SetTokenAssigned(ctx context.Context, rollNo string, assigned bool) error {
	return q.Students.SetTokenAssigned(ctx, rollNo, assigned)
}

func (q *QueueStore) MarkStudentVerified(ctx context.Context, rollNo string) error {
	return q.Students.SetVerified(ctx, rollNo)
}

func (q *QueueStore) AllTokens(ctx context.Context) ([]model.ApprovalToken, error) {
	return q.Tokens.All(ctx)
}

func (q *QueueStore) ActiveTokens(ctx context.Context) ([]model.ApprovalToken, error) {
	return q.Tokens.Active(ctx)
}

func (q *QueueStore) TokenByID(ctx context.Context, id uint64) (model.ApprovalToken, error) {
	return q.Tokens.GetByID(ctx, id)
}

func (q *QueueStore) TokenByStudent(ctx context.Context, rollNo string) (*model.ApprovalToken, error) {
	return q.Tokens.ByStudent(ctx, rollNo)
}

func (q *QueueStore) UnfinishedTokenByVolunteer(ctx context.Context, volunteerID uint64) (*model.ApprovalToken, error) {
	return q.Tokens.UnfinishedByVolunteer(ctx, volunteerID)
}

func (q *QueueStore) CreateToken(ctx context.Context, t *model.ApprovalToken) error {
	return q.Tokens.Create(ctx, t)
}

func (q *QueueStore) SetTokenNumber(ctx context.Context, tokenID uint64, number int) error {
	return q.Tokens.SetNumber(ctx, tokenID, number)
}

func (q *QueueStore) ClaimToken(ctx context.Context, tokenID, volunteerID uint64) (bool, error) {
	return q.Tokens.Claim(ctx, tokenID, volunteerID)
}

func (q *QueueStore) ReleaseToken(ctx context.Context, tokenID uint64) error {
	return q.Tokens.Release(ctx, tokenID)
}

func (q *QueueStore) VolunteerByID(ctx context.Context, id uint64) (model.Volunteer, error) {
	return q.Volunteers.GetByID(ctx, id)
}

func (q *QueueStore) SkipOffset(ctx context.Context) (int, error) {
	return q.Settings.SkipOffset(ctx)
}
