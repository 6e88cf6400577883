package partitioner

import (
	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
)

// CloggingPolicy decides what to do when a queue head cannot move because it
// would violate the balance constraint. RemoveCloggingEntries may discard
// heads; a true return tells the refiner to re-evaluate before selecting.
type CloggingPolicy interface {
	RemoveCloggingEntries(pq0Eligible, pq1Eligible bool,
		pq0, pq1 *da.AddressablePQ[int]) bool
}

func NewCloggingPolicy(rule pkg.CloggingRule) CloggingPolicy {
	switch rule {
	case pkg.CLOGGING_ONLY_REMOVE_IF_BOTH_QUEUES_CLOGGED:
		return onlyRemoveIfBothQueuesClogged{}
	case pkg.CLOGGING_REMOVE_ONLY_THE_CLOGGING_ENTRY:
		return removeOnlyTheCloggingEntry{}
	case pkg.CLOGGING_DO_NOT_REMOVE_AND_RESET_ELIGIBILITY:
		return doNotRemoveAndResetEligibility{}
	default:
		return nullCloggingPolicy{}
	}
}

// nullCloggingPolicy never discards; infeasible heads simply keep their
// queue out of the running.
type nullCloggingPolicy struct{}

func (nullCloggingPolicy) RemoveCloggingEntries(pq0Eligible, pq1Eligible bool,
	pq0, pq1 *da.AddressablePQ[int]) bool {
	return false
}

// onlyRemoveIfBothQueuesClogged pops the heads only when neither queue has a
// feasible one.
type onlyRemoveIfBothQueuesClogged struct{}

func (onlyRemoveIfBothQueuesClogged) RemoveCloggingEntries(pq0Eligible, pq1Eligible bool,
	pq0, pq1 *da.AddressablePQ[int]) bool {
	if pq0Eligible || pq1Eligible {
		return false
	}
	removed := false
	if !pq0.IsEmpty() {
		pq0.DeleteMax()
		removed = true
	}
	if !pq1.IsEmpty() {
		pq1.DeleteMax()
		removed = true
	}
	return removed
}

// removeOnlyTheCloggingEntry discards every infeasible head immediately.
type removeOnlyTheCloggingEntry struct{}

func (removeOnlyTheCloggingEntry) RemoveCloggingEntries(pq0Eligible, pq1Eligible bool,
	pq0, pq1 *da.AddressablePQ[int]) bool {
	removed := false
	if !pq0Eligible && !pq0.IsEmpty() {
		pq0.DeleteMax()
		removed = true
	}
	if !pq1Eligible && !pq1.IsEmpty() {
		pq1.DeleteMax()
		removed = true
	}
	return removed
}

// doNotRemoveAndResetEligibility keeps every entry and never reports a
// removal, so it behaves like nullCloggingPolicy: eligibility is not reset,
// and when neither queue head is feasible the refiner ends the pass.
type doNotRemoveAndResetEligibility struct{}

func (doNotRemoveAndResetEligibility) RemoveCloggingEntries(pq0Eligible, pq1Eligible bool,
	pq0, pq1 *da.AddressablePQ[int]) bool {
	return false
}
