package tokenqueue

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusarrival/arrival-portal/internal/model"
)

// memStore is an in-memory test double for Store. It enforces the
// same unique constraints as the database schema (token numbers and
// one token per roll number), so any transient uniqueness violation
// inside a manager operation fails the test immediately.
type memStore struct {
	students   map[string]*model.Student
	volunteers map[uint64]*model.Volunteer
	tokens     []*model.ApprovalToken
	offset     int
	nextID     uint64

	setNumberCalls    int
	failSetNumberCall int // 1-based call index to fail on; 0 disables
}

func newMemStore() *memStore {
	return &memStore{
		students:   map[string]*model.Student{},
		volunteers: map[uint64]*model.Volunteer{},
		offset:     model.DefaultSkipOffset,
	}
}

func (m *memStore) addStudent(rollNo string, eligible bool) *model.Student {
	s := &model.Student{
		IATRollNo:        rollNo,
		StudentName:      "Student " + rollNo,
		FeesPaid:         eligible,
		HostelMessStatus: eligible,
		InsuranceStatus:  eligible,
	}
	m.students[rollNo] = s
	return s
}

func (m *memStore) addVolunteer(id uint64, canVerify, available bool) *model.Volunteer {
	v := &model.Volunteer{ID: id, Username: fmt.Sprintf("vol%d", id), Role: model.RoleVolunteer,
		CanVerifyLHC: canVerify, IsAvailable: available}
	m.volunteers[id] = v
	return v
}

func (m *memStore) addToken(number int, rollNo string, volunteerID *uint64) *model.ApprovalToken {
	m.nextID++
	t := &model.ApprovalToken{ID: m.nextID, TokenNumber: number, StudentRollNo: rollNo,
		VolunteerID: volunteerID, IsProcessing: volunteerID != nil}
	m.tokens = append(m.tokens, t)
	if s, ok := m.students[rollNo]; ok {
		s.TokenAssigned = true
	}
	return t
}

func (m *memStore) StudentByRollNo(_ context.Context, rollNo string) (model.Student, error) {
	s, ok := m.students[rollNo]
	if !ok {
		return model.Student{}, sql.ErrNoRows
	}
	return *s, nil
}

func (m *memStore) ListStudents(_ context.Context) ([]model.Student, error) {
	out := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IATRollNo < out[j].IATRollNo })
	return out, nil
}

func (m *memStore) SetTokenAssigned(_ context.Context, rollNo string, assigned bool) error {
	if s, ok := m.students[rollNo]; ok {
		s.TokenAssigned = assigned
	}
	return nil
}

func (m *memStore) MarkStudentVerified(_ context.Context, rollNo string) error {
	s, ok := m.students[rollNo]
	if !ok {
		return sql.ErrNoRows
	}
	s.LHCDocsStatus = true
	return nil
}

func (m *memStore) sorted(tokens []*model.ApprovalToken) []model.ApprovalToken {
	out := make([]model.ApprovalToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenNumber < out[j].TokenNumber })
	return out
}

func (m *memStore) AllTokens(_ context.Context) ([]model.ApprovalToken, error) {
	return m.sorted(m.tokens), nil
}

func (m *memStore) ActiveTokens(_ context.Context) ([]model.ApprovalToken, error) {
	var active []*model.ApprovalToken
	for _, t := range m.tokens {
		if s, ok := m.students[t.StudentRollNo]; ok && s.LHCDocsStatus {
			continue
		}
		active = append(active, t)
	}
	return m.sorted(active), nil
}

func (m *memStore) TokenByID(_ context.Context, id uint64) (model.ApprovalToken, error) {
	for _, t := range m.tokens {
		if t.ID == id {
			return *t, nil
		}
	}
	return model.ApprovalToken{}, sql.ErrNoRows
}

func (m *memStore) TokenByStudent(_ context.Context, rollNo string) (*model.ApprovalToken, error) {
	for _, t := range m.tokens {
		if t.StudentRollNo == rollNo {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) UnfinishedTokenByVolunteer(_ context.Context, volunteerID uint64) (*model.ApprovalToken, error) {
	for _, t := range m.tokens {
		if t.VolunteerID == nil || *t.VolunteerID != volunteerID {
			continue
		}
		if s, ok := m.students[t.StudentRollNo]; ok && s.LHCDocsStatus {
			continue
		}
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) CreateToken(_ context.Context, t *model.ApprovalToken) error {
	for _, existing := range m.tokens {
		if existing.TokenNumber == t.TokenNumber {
			return fmt.Errorf("duplicate token number %d", t.TokenNumber)
		}
		if existing.StudentRollNo == t.StudentRollNo {
			return fmt.Errorf("duplicate token for %s", t.StudentRollNo)
		}
	}
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memStore) SetTokenNumber(_ context.Context, tokenID uint64, number int) error {
	m.setNumberCalls++
	if m.failSetNumberCall > 0 && m.setNumberCalls == m.failSetNumberCall {
		return fmt.Errorf("injected write failure")
	}
	for _, t := range m.tokens {
		if t.ID != tokenID && t.TokenNumber == number {
			return fmt.Errorf("duplicate token number %d", number)
		}
	}
	for _, t := range m.tokens {
		if t.ID == tokenID {
			t.TokenNumber = number
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) ClaimToken(_ context.Context, tokenID, volunteerID uint64) (bool, error) {
	for _, t := range m.tokens {
		if t.ID != tokenID {
			continue
		}
		if t.VolunteerID != nil {
			return false, nil
		}
		id := volunteerID
		t.VolunteerID = &id
		t.IsProcessing = true
		return true, nil
	}
	return false, sql.ErrNoRows
}

func (m *memStore) ReleaseToken(_ context.Context, tokenID uint64) error {
	for _, t := range m.tokens {
		if t.ID == tokenID {
			t.VolunteerID = nil
			t.IsProcessing = false
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memStore) VolunteerByID(_ context.Context, id uint64) (model.Volunteer, error) {
	v, ok := m.volunteers[id]
	if !ok {
		return model.Volunteer{}, sql.ErrNoRows
	}
	return *v, nil
}

func (m *memStore) SkipOffset(_ context.Context) (int, error) { return m.offset, nil }

func newTestManager(store *memStore) *Manager {
	return NewManager(store, zap.NewNop().Sugar())
}

// activeNumbers returns the active queue's numbers in ascending order.
func activeNumbers(t *testing.T, store *memStore) []int {
	t.Helper()
	active, err := store.ActiveTokens(context.Background())
	require.NoError(t, err)
	nums := make([]int, 0, len(active))
	for _, tok := range active {
		nums = append(nums, tok.TokenNumber)
	}
	return nums
}

func TestIssueToken_PrerequisiteGate(t *testing.T) {
	cases := []struct {
		name                       string
		fees, hostel, insurance    bool
	}{
		{"missing fees", false, true, true},
		{"missing hostel", true, false, true},
		{"missing insurance", true, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			s := store.addStudent("B23001", false)
			s.FeesPaid, s.HostelMessStatus, s.InsuranceStatus = tc.fees, tc.hostel, tc.insurance
			mgr := newTestManager(store)

			_, err := mgr.IssueToken(context.Background(), "B23001", 0)
			assert.ErrorIs(t, err, ErrPrerequisiteNotMet)
			assert.Empty(t, store.tokens)
			assert.False(t, store.students["B23001"].TokenAssigned)
		})
	}

	t.Run("all prerequisites met", func(t *testing.T) {
		store := newMemStore()
		store.addStudent("B23001", true)
		mgr := newTestManager(store)

		tok, err := mgr.IssueToken(context.Background(), "B23001", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, tok.TokenNumber)
		assert.True(t, store.students["B23001"].TokenAssigned)
	})
}

func TestIssueToken_AlreadyAssigned(t *testing.T) {
	store := newMemStore()
	store.addStudent("B23001", true)
	store.addToken(1, "B23001", nil)
	mgr := newTestManager(store)

	_, err := mgr.IssueToken(context.Background(), "B23001", 0)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.Len(t, store.tokens, 1)
}

func TestIssueToken_MonotonicNumbers(t *testing.T) {
	store := newMemStore()
	mgr := newTestManager(store)
	prev := 0
	for i := 1; i <= 5; i++ {
		roll := fmt.Sprintf("B2300%d", i)
		store.addStudent(roll, true)
		tok, err := mgr.IssueToken(context.Background(), roll, 0)
		require.NoError(t, err)
		assert.Greater(t, tok.TokenNumber, prev)
		prev = tok.TokenNumber
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, activeNumbers(t, store))
}

func TestIssueToken_ClaimedByIssuingVolunteer(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(7, true, true)
	store.addStudent("B23001", true)
	store.addStudent("B23002", true)
	mgr := newTestManager(store)

	tok, err := mgr.IssueToken(context.Background(), "B23001", 7)
	require.NoError(t, err)
	require.NotNil(t, tok.VolunteerID)
	assert.Equal(t, uint64(7), *tok.VolunteerID)
	assert.True(t, tok.IsProcessing)

	// The volunteer already holds a claim, so the next issuance is unclaimed.
	tok2, err := mgr.IssueToken(context.Background(), "B23002", 7)
	require.NoError(t, err)
	assert.Nil(t, tok2.VolunteerID)
	assert.False(t, tok2.IsProcessing)
}

func TestIssueToken_NotClaimedByUnavailableVolunteer(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(7, true, false)
	store.addVolunteer(8, false, true)
	store.addStudent("B23001", true)
	store.addStudent("B23002", true)
	mgr := newTestManager(store)

	tok, err := mgr.IssueToken(context.Background(), "B23001", 7)
	require.NoError(t, err)
	assert.Nil(t, tok.VolunteerID)

	tok, err = mgr.IssueToken(context.Background(), "B23002", 8)
	require.NoError(t, err)
	assert.Nil(t, tok.VolunteerID)
}

func TestAutoAssign_LowestClaimable(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, true, true)
	other := uint64(99)
	for i := 1; i <= 3; i++ {
		roll := fmt.Sprintf("B2300%d", i)
		store.addStudent(roll, true)
	}
	store.addVolunteer(99, true, true)
	store.addToken(1, "B23001", &other) // lowest is already claimed
	store.addToken(2, "B23002", nil)
	store.addToken(3, "B23003", nil)
	mgr := newTestManager(store)

	tok, err := mgr.AutoAssignNext(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, 2, tok.TokenNumber)
	assert.Equal(t, uint64(1), *tok.VolunteerID)
}

func TestAutoAssign_Idempotent(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, true, true)
	store.addStudent("B23001", true)
	store.addStudent("B23002", true)
	store.addToken(1, "B23001", nil)
	store.addToken(2, "B23002", nil)
	mgr := newTestManager(store)

	first, err := mgr.AutoAssignNext(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.TokenNumber)

	// Re-invoking with no intervening state change is a no-op.
	second, err := mgr.AutoAssignNext(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, second)

	held := 0
	for _, tok := range store.tokens {
		if tok.VolunteerID != nil && *tok.VolunteerID == 1 {
			held++
		}
	}
	assert.Equal(t, 1, held)
	assert.Equal(t, []int{1, 2}, activeNumbers(t, store))
}

func TestAutoAssign_RequiresCapabilityAndAvailability(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, false, true)
	store.addVolunteer(2, true, false)
	store.addStudent("B23001", true)
	store.addToken(1, "B23001", nil)
	mgr := newTestManager(store)

	for _, id := range []uint64{1, 2} {
		tok, err := mgr.AutoAssignNext(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, tok)
	}
	assert.Nil(t, store.tokens[0].VolunteerID)
}

func TestAutoAssign_EmptyQueue(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, true, true)
	mgr := newTestManager(store)

	tok, err := mgr.AutoAssignNext(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestCompleteVerification_ReleasesAndReassigns(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, true, true)
	store.addStudent("B23001", true)
	store.addStudent("B23002", true)
	mgr := newTestManager(store)

	// Issue and claim token #1 for V1, then a second unclaimed token.
	tok1, err := mgr.IssueToken(context.Background(), "B23001", 1)
	require.NoError(t, err)
	require.NotNil(t, tok1.VolunteerID)
	_, err = mgr.IssueToken(context.Background(), "B23002", 1)
	require.NoError(t, err)

	next, err := mgr.CompleteVerification(context.Background(), tok1.ID)
	require.NoError(t, err)

	// Student flag set, claim cleared, token out of the active queue.
	assert.True(t, store.students["B23001"].LHCDocsStatus)
	done, err := store.TokenByID(context.Background(), tok1.ID)
	require.NoError(t, err)
	assert.Nil(t, done.VolunteerID)
	assert.False(t, done.IsProcessing)
	assert.Equal(t, []int{2}, activeNumbers(t, store))

	// The releasing volunteer immediately picked up the next ticket.
	require.NotNil(t, next)
	assert.Equal(t, 2, next.TokenNumber)
	assert.Equal(t, uint64(1), *next.VolunteerID)
}

func TestAtMostOneClaimPerVolunteer(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, true, true)
	store.addVolunteer(2, true, true)
	mgr := newTestManager(store)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		roll := fmt.Sprintf("B2300%d", i)
		store.addStudent(roll, true)
		_, err := mgr.IssueToken(ctx, roll, 0)
		require.NoError(t, err)
	}
	for range [3]struct{}{} {
		_, err := mgr.AutoAssignNext(ctx, 1)
		require.NoError(t, err)
		_, err = mgr.AutoAssignNext(ctx, 2)
		require.NoError(t, err)
	}

	counts := map[uint64]int{}
	for _, tok := range store.tokens {
		if tok.VolunteerID != nil {
			counts[*tok.VolunteerID]++
		}
	}
	assert.LessOrEqual(t, counts[1], 1)
	assert.LessOrEqual(t, counts[2], 1)
}

func TestFetchQueue_SweepCorrectsTokenAssigned(t *testing.T) {
	store := newMemStore()
	store.addStudent("B23001", true)
	store.addStudent("B23002", true)
	store.addStudent("B23003", true)
	store.addToken(1, "B23001", nil)
	// Drift: B23001 has a token but the flag was lost; B23002 claims
	// the flag with no token row behind it.
	store.students["B23001"].TokenAssigned = false
	store.students["B23002"].TokenAssigned = true
	mgr := newTestManager(store)

	entries, err := mgr.FetchQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "B23001", entries[0].Token.StudentRollNo)

	assert.True(t, store.students["B23001"].TokenAssigned)
	assert.False(t, store.students["B23002"].TokenAssigned)
	assert.False(t, store.students["B23003"].TokenAssigned)
}

func TestFetchQueue_OrderedWithStudents(t *testing.T) {
	store := newMemStore()
	for i := 1; i <= 3; i++ {
		store.addStudent(fmt.Sprintf("B2300%d", i), true)
	}
	store.addToken(3, "B23003", nil)
	store.addToken(1, "B23001", nil)
	store.addToken(2, "B23002", nil)
	mgr := newTestManager(store)

	entries, err := mgr.FetchQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Token.TokenNumber)
		assert.Equal(t, e.Token.StudentRollNo, e.Student.IATRollNo)
		assert.True(t, e.Claimable())
	}
}

func TestStats_Counters(t *testing.T) {
	store := newMemStore()
	for i := 1; i <= 4; i++ {
		store.addStudent(fmt.Sprintf("B2300%d", i), true)
	}
	store.students["B23001"].HostelMessStatus = true
	store.students["B23001"].InsuranceStatus = true
	store.students["B23001"].LHCDocsStatus = true
	store.students["B23001"].FinalApprovalStatus = true
	store.students["B23002"].HostelMessStatus = true
	vol := uint64(1)
	store.addVolunteer(1, true, true)
	store.addToken(1, "B23002", &vol)
	store.addToken(2, "B23003", nil)
	store.addToken(3, "B23004", nil)
	mgr := newTestManager(store)

	st, err := mgr.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalStudents)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 3, st.InProgress)
	assert.Equal(t, float64(25), st.CompletionRate)
	assert.Equal(t, 2, st.QueueDepth)
	require.Len(t, st.StepCounts, model.TotalSteps)
	assert.Equal(t, 4, st.StepCounts[0].Count) // hostel & mess
	assert.Equal(t, 1, st.StepCounts[2].Count) // LHC docs
}

func TestScenario_IssueClaimComplete(t *testing.T) {
	store := newMemStore()
	store.addStudent("S1", true)
	store.addVolunteer(1, true, true)
	mgr := newTestManager(store)
	ctx := context.Background()

	tok, err := mgr.IssueToken(ctx, "S1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, tok.TokenNumber)
	assert.True(t, store.students["S1"].TokenAssigned)

	claimed, err := mgr.AutoAssignNext(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, tok.ID, claimed.ID)

	_, err = mgr.CompleteVerification(ctx, tok.ID)
	require.NoError(t, err)
	assert.True(t, store.students["S1"].LHCDocsStatus)
	assert.Empty(t, activeNumbers(t, store))
}
