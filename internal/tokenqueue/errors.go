// Package tokenqueue owns the lifecycle of approval tokens: issuance,
// volunteer claim and auto-assignment, completion, and the skip
// rebalancing that pushes a stalled ticket backward in the queue. It
// consumes a persistence collaborator through the Store interface and
// never performs internal retries; every failure is surfaced to the
// caller, which is expected to retry through the normal refresh cycle.
package tokenqueue

import "errors"

// ErrPrerequisiteNotMet is returned when token issuance is attempted
// before the student has completed the fees, hostel/mess and insurance
// steps. No state is changed.
var ErrPrerequisiteNotMet = errors.New("prerequisite steps not complete")

// ErrAlreadyAssigned is returned when token issuance is attempted for
// a student who already has a token. No state is changed.
var ErrAlreadyAssigned = errors.New("token already assigned")

// ErrNoAssignedToken is returned when a skip is attempted by a
// volunteer holding no live claim. No state is changed.
var ErrNoAssignedToken = errors.New("no assigned token")

// ErrSkipFailed wraps a persistence failure inside the multi-step skip
// sequence. The queue may be left partially renumbered but never with
// duplicate numbers; the next full queue recomputation reads a
// consistent order from stored data.
var ErrSkipFailed = errors.New("skip failed")
