package tokenqueue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// scratchGap is added to the highest known token number to produce the
// temporary number a skipped token parks at while the intervening
// block is renumbered. Any value past the live range works; the gap
// keeps concurrent issuance from landing on it.
const scratchGap = 1000

// Manager coordinates the approval-token queue. All operations are
// invoked from request handlers; the manager holds no in-process state
// beyond its collaborators, so every call recomputes eligibility from
// stored data and a half-finished mutation heals on the next read.
type Manager struct {
	store  Store
	logger *zap.SugaredLogger
}

// NewManager returns a Manager over the given store.
func NewManager(store Store, logger *zap.SugaredLogger) *Manager {
	return &Manager{store: store, logger: logger}
}

// IssueToken creates the next sequential token for a student who has
// cleared the fees, hostel/mess and insurance steps. When the issuing
// actor is an available verifying volunteer with no current claim, the
// token is born claimed by them. actorID zero means the actor does not
// participate in claiming (e.g. an admin issuing on a student's behalf).
func (m *Manager) IssueToken(ctx context.Context, rollNo string, actorID uint64) (*model.ApprovalToken, error) {
	student, err := m.store.StudentByRollNo(ctx, rollNo)
	if err != nil {
		return nil, err
	}
	if !student.EligibleForToken() {
		return nil, ErrPrerequisiteNotMet
	}
	// The token row is the ground truth for assignment, not the cached
	// token_assigned flag.
	existing, err := m.store.TokenByStudent(ctx, student.IATRollNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyAssigned
	}

	all, err := m.store.AllTokens(ctx)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := maxNumber(all); n > 0 {
		next = n + 1
	}

	token := &model.ApprovalToken{
		TokenNumber:   next,
		StudentRollNo: student.IATRollNo,
	}
	if actorID != 0 {
		if ok, err := m.canClaim(ctx, actorID); err != nil {
			return nil, err
		} else if ok {
			id := actorID
			token.VolunteerID = &id
			token.IsProcessing = true
		}
	}
	if err := m.store.CreateToken(ctx, token); err != nil {
		return nil, err
	}
	m.logger.Infow("issued token", "token_number", token.TokenNumber, "roll_no", student.IATRollNo, "claimed", token.Claimed())

	// Best effort: a failure here leaves the cached flag stale until
	// the consistency sweep recomputes it on the next queue fetch.
	if err := m.store.SetTokenAssigned(ctx, student.IATRollNo, true); err != nil {
		m.logger.Warnw("token_assigned update failed, sweep will reconcile", "roll_no", student.IATRollNo, "err", err)
	}
	return token, nil
}

// canClaim reports whether the volunteer may be handed a ticket:
// capability flag set, currently available, and no unfinished claim.
func (m *Manager) canClaim(ctx context.Context, volunteerID uint64) (bool, error) {
	vol, err := m.store.VolunteerByID(ctx, volunteerID)
	if err != nil {
		return false, err
	}
	if !vol.CanVerifyLHC || !vol.IsAvailable {
		return false, nil
	}
	held, err := m.store.UnfinishedTokenByVolunteer(ctx, volunteerID)
	if err != nil {
		return false, err
	}
	return held == nil, nil
}

// AutoAssignNext hands the lowest-numbered claimable token to the
// volunteer. It is idempotent and safe to re-invoke on every queue
// change: a volunteer already holding an unfinished claim is a no-op,
// as is an empty claimable set. The claim itself is a conditional
// update, so a racing assignment of the same token loses cleanly and
// the loop falls through to the next claimable entry.
//
// Returns the claimed token, or nil when nothing was assigned.
func (m *Manager) AutoAssignNext(ctx context.Context, volunteerID uint64) (*model.ApprovalToken, error) {
	ok, err := m.canClaim(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	active, err := m.store.ActiveTokens(ctx)
	if err != nil {
		return nil, err
	}
	for i := range active {
		t := active[i]
		if t.Claimed() {
			continue
		}
		claimed, err := m.store.ClaimToken(ctx, t.ID, volunteerID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Raced with another assignment; try the next entry.
			continue
		}
		id := volunteerID
		t.VolunteerID = &id
		t.IsProcessing = true
		m.logger.Infow("auto-assigned token", "token_number", t.TokenNumber, "volunteer_id", volunteerID)
		return &t, nil
	}
	return nil, nil
}

// CompleteVerification marks a token's student as LHC-verified and
// releases the claim. The token row stays in storage as history; it
// leaves the active queue because the student flag now excludes it.
// The releasing volunteer is immediately re-run through auto
// assignment so they pick up the next ticket.
func (m *Manager) CompleteVerification(ctx context.Context, tokenID uint64) (*model.ApprovalToken, error) {
	token, err := m.store.TokenByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if err := m.store.MarkStudentVerified(ctx, token.StudentRollNo); err != nil {
		return nil, err
	}
	releasing := token.VolunteerID
	if err := m.store.ReleaseToken(ctx, token.ID); err != nil {
		return nil, err
	}
	m.logger.Infow("verification complete", "token_number", token.TokenNumber, "roll_no", token.StudentRollNo)

	// The release write is committed before AutoAssignNext re-reads the
	// store, so the volunteer no longer appears to hold a claim.
	if releasing == nil {
		return nil, nil
	}
	return m.AutoAssignNext(ctx, *releasing)
}

// SkipAssignedToken pushes the volunteer's current ticket backward by
// the configured number of queue positions without losing its turn
// entirely. The token numbers of the intervening block rotate down one
// slot each and the skipped token takes the vacated slot at the far
// end, so the number set of the active queue is preserved exactly and
// the unique-number constraint is never transiently violated: the
// skipped token first parks at a scratch number past the live range,
// and every subsequent write moves a token into a slot vacated by the
// previous step.
//
// Each step is a separate write. On failure the queue is left in the
// last successfully written state, which is re-readable and repaired
// by the next full recomputation; the error wraps ErrSkipFailed.
func (m *Manager) SkipAssignedToken(ctx context.Context, volunteerID uint64) error {
	current, err := m.store.UnfinishedTokenByVolunteer(ctx, volunteerID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNoAssignedToken
	}
	offset, err := m.store.SkipOffset(ctx)
	if err != nil {
		return err
	}
	active, err := m.store.ActiveTokens(ctx)
	if err != nil {
		return err
	}
	i := -1
	for k := range active {
		if active[k].ID == current.ID {
			i = k
			break
		}
	}
	if i < 0 {
		return ErrNoAssignedToken
	}
	j := i + offset
	if last := len(active) - 1; j > last {
		j = last
	}
	if j <= i {
		// Already at the back of the queue; nothing to renumber.
		m.logger.Debugw("skip is a no-op, token already last", "token_number", current.TokenNumber)
		return nil
	}

	all, err := m.store.AllTokens(ctx)
	if err != nil {
		return err
	}
	scratch := maxNumber(all) + scratchGap

	// Vacate the current slot and free the volunteer.
	if err := m.store.SetTokenNumber(ctx, current.ID, scratch); err != nil {
		return fmt.Errorf("%w: scratch renumber: %v", ErrSkipFailed, err)
	}
	if err := m.store.ReleaseToken(ctx, current.ID); err != nil {
		return fmt.Errorf("%w: release claim: %v", ErrSkipFailed, err)
	}

	// Shift the intervening block forward one slot each: every token
	// takes the number its predecessor just vacated.
	prev := current.TokenNumber
	for k := i + 1; k <= j; k++ {
		old := active[k].TokenNumber
		if err := m.store.SetTokenNumber(ctx, active[k].ID, prev); err != nil {
			return fmt.Errorf("%w: shift token %d: %v", ErrSkipFailed, active[k].TokenNumber, err)
		}
		prev = old
	}

	// The far slot is now vacant; land the skipped token there.
	if err := m.store.SetTokenNumber(ctx, current.ID, prev); err != nil {
		return fmt.Errorf("%w: final renumber: %v", ErrSkipFailed, err)
	}
	m.logger.Infow("skipped token", "from_number", current.TokenNumber, "to_number", prev, "volunteer_id", volunteerID)

	_, err = m.AutoAssignNext(ctx, volunteerID)
	return err
}

// FetchQueue runs the consistency sweep and returns the active queue
// as ordered token/student pairs, ascending by token number.
func (m *Manager) FetchQueue(ctx context.Context) ([]Entry, error) {
	students, err := m.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	all, err := m.store.AllTokens(ctx)
	if err != nil {
		return nil, err
	}

	// Consistency sweep: token_assigned is a cached mirror of token row
	// existence; recompute it and correct mismatches. This compensates
	// for the lack of a transactional link between token creation and
	// the flag write.
	hasToken := make(map[string]bool, len(all))
	for _, t := range all {
		hasToken[t.StudentRollNo] = true
	}
	byRoll := make(map[string]model.Student, len(students))
	for _, s := range students {
		byRoll[s.IATRollNo] = s
		if s.TokenAssigned != hasToken[s.IATRollNo] {
			if err := m.store.SetTokenAssigned(ctx, s.IATRollNo, hasToken[s.IATRollNo]); err != nil {
				return nil, err
			}
			m.logger.Infow("sweep corrected token_assigned", "roll_no", s.IATRollNo, "assigned", hasToken[s.IATRollNo])
		}
	}

	active, err := m.store.ActiveTokens(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(active))
	for _, t := range active {
		entries = append(entries, Entry{Token: t, Student: byRoll[t.StudentRollNo]})
	}
	return entries, nil
}

// TokenByID loads a single token row.
func (m *Manager) TokenByID(ctx context.Context, id uint64) (model.ApprovalToken, error) {
	return m.store.TokenByID(ctx, id)
}

// AssignedToken returns the volunteer's current unfinished claim, or
// nil when they hold none.
func (m *Manager) AssignedToken(ctx context.Context, volunteerID uint64) (*model.ApprovalToken, error) {
	return m.store.UnfinishedTokenByVolunteer(ctx, volunteerID)
}

func maxNumber(tokens []model.ApprovalToken) int {
	max := 0
	for _, t := range tokens {
		if t.TokenNumber > max {
			max = t.TokenNumber
		}
	}
	return max
}
