package tokenqueue

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSkipQueue creates n eligible students with active tokens 1..n and a
// capable volunteer holding the claim on token #1.
func seedSkipQueue(t *testing.T, n int) (*memStore, *Manager) {
	t.Helper()
	store := newMemStore()
	store.addVolunteer(1, true, true)
	vol := uint64(1)
	for i := 1; i <= n; i++ {
		roll := fmt.Sprintf("S%d", i)
		store.addStudent(roll, true)
		if i == 1 {
			store.addToken(i, roll, &vol)
		} else {
			store.addToken(i, roll, nil)
		}
	}
	return store, newTestManager(store)
}

// queueOrder returns the student roll numbers in ascending token-number order.
func queueOrder(t *testing.T, store *memStore) []string {
	t.Helper()
	active, err := store.ActiveTokens(context.Background())
	require.NoError(t, err)
	rolls := make([]string, 0, len(active))
	for _, tok := range active {
		rolls = append(rolls, tok.StudentRollNo)
	}
	return rolls
}

func TestSkip_MovesBackByOffsetAndPreservesNumbers(t *testing.T) {
	store, mgr := seedSkipQueue(t, 5)
	store.offset = 3

	err := mgr.SkipAssignedToken(context.Background(), 1)
	require.NoError(t, err)

	// The skipped student moved three places back; everyone between
	// shifted forward one slot. The number set is untouched.
	assert.Equal(t, []string{"S2", "S3", "S4", "S1", "S5"}, queueOrder(t, store))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, activeNumbers(t, store))
}

func TestSkip_ReassignsVolunteerToNewFront(t *testing.T) {
	store, mgr := seedSkipQueue(t, 5)
	store.offset = 3

	err := mgr.SkipAssignedToken(context.Background(), 1)
	require.NoError(t, err)

	front, err := mgr.store.UnfinishedTokenByVolunteer(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, front)
	assert.Equal(t, "S2", front.StudentRollNo)
	assert.Equal(t, 1, front.TokenNumber)
}

func TestSkip_OffsetClampsToEndOfQueue(t *testing.T) {
	store, mgr := seedSkipQueue(t, 3)
	store.offset = 10

	err := mgr.SkipAssignedToken(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"S2", "S3", "S1"}, queueOrder(t, store))
	assert.Equal(t, []int{1, 2, 3}, activeNumbers(t, store))
}

func TestSkip_LastInQueueIsNoOp(t *testing.T) {
	store, mgr := seedSkipQueue(t, 1)
	callsBefore := store.setNumberCalls

	err := mgr.SkipAssignedToken(context.Background(), 1)
	require.NoError(t, err)

	// No renumbering happened and no higher number was minted.
	assert.Equal(t, callsBefore, store.setNumberCalls)
	assert.Equal(t, []int{1}, activeNumbers(t, store))
	held, err := store.UnfinishedTokenByVolunteer(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, held)
	assert.Equal(t, "S1", held.StudentRollNo)
}

func TestSkip_NoClaimHeld(t *testing.T) {
	store := newMemStore()
	store.addVolunteer(1, true, true)
	mgr := newTestManager(store)

	err := mgr.SkipAssignedToken(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoAssignedToken)
}

func TestSkip_GappedQueueAvoidsHistoricalNumbers(t *testing.T) {
	store, mgr := seedSkipQueue(t, 5)
	store.offset = 2
	// S2's verification completed earlier, leaving a gap at number 2.
	require.NoError(t, store.MarkStudentVerified(context.Background(), "S2"))
	require.Equal(t, []int{1, 3, 4, 5}, activeNumbers(t, store))

	err := mgr.SkipAssignedToken(context.Background(), 1)
	require.NoError(t, err)

	// The active numbers are a permutation of what was already there;
	// the retired number 2 is never reused.
	assert.Equal(t, []int{1, 3, 4, 5}, activeNumbers(t, store))
	assert.Equal(t, []string{"S3", "S4", "S1", "S5"}, queueOrder(t, store))
}

func TestSkip_FailureLeavesNumbersUnique(t *testing.T) {
	for failAt := 1; failAt <= 4; failAt++ {
		t.Run(fmt.Sprintf("fail on write %d", failAt), func(t *testing.T) {
			store, mgr := seedSkipQueue(t, 5)
			store.offset = 3
			store.failSetNumberCall = failAt

			err := mgr.SkipAssignedToken(context.Background(), 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSkipFailed)

			// Whatever write the failure interrupted, no two tokens
			// ever share a number.
			seen := map[int]bool{}
			for _, tok := range store.tokens {
				assert.False(t, seen[tok.TokenNumber], "duplicate number %d", tok.TokenNumber)
				seen[tok.TokenNumber] = true
			}
		})
	}
}

func TestSkip_RepeatedSkipsKeepQueueDense(t *testing.T) {
	store, mgr := seedSkipQueue(t, 4)
	store.offset = 2
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := mgr.SkipAssignedToken(ctx, 1)
		require.NoError(t, err)
		nums := activeNumbers(t, store)
		sorted := append([]int(nil), nums...)
		sort.Ints(sorted)
		assert.Equal(t, []int{1, 2, 3, 4}, sorted)
	}
}
