package fund

import (
	"sync"
	"time"

	"FeeAllocator/internal/model"
)

// Stats tracks lifetime counters. Only completed work is recorded.
type Stats struct {
	mu sync.Mutex
	s  model.Statistics
}

// NewStats creates zeroed counters.
func NewStats() *Stats { return &Stats{} }

// Load replaces the counters from persisted state.
func (st *Stats) Load(s model.Statistics) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = s
}

// Snapshot returns a copy of the counters.
func (st *Stats) Snapshot() model.Statistics {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

// RecordClaim counts a non-zero claim.
func (st *Stats) RecordClaim(amount int64, at time.Time) {
	if amount <= 0 {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.TotalClaimed += amount
	st.s.ClaimCount++
	st.s.LastClaimAt = at
}

// RecordAction adds an action's amounts to the bucket's counters. A partial
// failure counts too: its native input is gone and its asset is stranded,
// to be counted in TokensBurned by the cycle that finishes it.
func (st *Stats) RecordAction(r model.ActionResult) {
	if !r.Moved() {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.TotalDistributed += r.Spent
	switch r.Bucket {
	case model.BucketBurn:
		st.s.TotalBurned += r.Spent
		st.s.TokensBurned += r.Asset
	case model.BucketBuyback:
		st.s.TotalBuyback += r.Spent
	case model.BucketHolderReward:
		st.s.TotalHolderReward += r.Spent
	case model.BucketLPPool:
		st.s.PoolSharesBurned += r.Shares
		st.s.TokensBurned += r.Asset
	}
}

// RecordDistribution counts a distribution in which at least one action succeeded.
func (st *Stats) RecordDistribution(d model.DistributionResult) {
	for _, a := range d.Actions {
		if a.Succeeded() {
			st.mu.Lock()
			st.s.DistributionCount++
			st.s.LastDistributedAt = d.At
			st.mu.Unlock()
			return
		}
	}
}
