package fund

import (
	"sync"

	"FeeAllocator/internal/model"
)

// Accumulator is the per-bucket carry-forward ledger. Pending holds native
// units deferred to the next cycle; stranded holds intermediate amounts left
// by a failed second step.
type Accumulator struct {
	mu       sync.Mutex
	pending  map[model.Bucket]int64
	stranded map[model.Bucket]model.Stranded
}

// NewAccumulator creates an empty ledger.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		pending:  make(map[model.Bucket]int64, len(model.Buckets)),
		stranded: make(map[model.Bucket]model.Stranded),
	}
}

// Pending returns the carried amount for b.
func (a *Accumulator) Pending(b model.Bucket) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending[b]
}

// Effective returns share plus whatever is pending for b.
func (a *Accumulator) Effective(b model.Bucket, share int64) int64 {
	return share + a.Pending(b)
}

// Carry adds this cycle's share to the pending amount. Repeated failures compound.
func (a *Accumulator) Carry(b model.Bucket, share int64) {
	if share <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[b] += share
}

// Retain replaces the pending amount after a success. leftover is the part of
// the effective input the action did not spend; usually zero.
func (a *Accumulator) Retain(b model.Bucket, leftover int64) {
	if leftover < 0 {
		leftover = 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[b] = leftover
}

// Total sums all pending buckets.
func (a *Accumulator) Total() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total int64
	for _, v := range a.pending {
		total += v
	}
	return total
}

// Drain zeroes every bucket and returns what was pending.
func (a *Accumulator) Drain() map[model.Bucket]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[model.Bucket]int64, len(a.pending))
	for b, v := range a.pending {
		if v > 0 {
			out[b] = v
		}
		a.pending[b] = 0
	}
	return out
}

// Restore adds previously drained amounts back.
func (a *Accumulator) Restore(amounts map[model.Bucket]int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for b, v := range amounts {
		if v > 0 {
			a.pending[b] += v
		}
	}
}

// Stranded returns the intermediate amounts recorded for b.
func (a *Accumulator) Stranded(b model.Bucket) model.Stranded {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stranded[b]
}

// SetStranded replaces the stranded record for b.
func (a *Accumulator) SetStranded(b model.Bucket, s model.Stranded) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.Empty() {
		delete(a.stranded, b)
		return
	}
	a.stranded[b] = s
}

// Snapshot returns copies of both ledgers. Every bucket is present in pending.
func (a *Accumulator) Snapshot() (map[model.Bucket]int64, map[model.Bucket]model.Stranded) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pending := make(map[model.Bucket]int64, len(model.Buckets))
	for _, b := range model.Buckets {
		pending[b] = a.pending[b]
	}
	stranded := make(map[model.Bucket]model.Stranded, len(a.stranded))
	for b, s := range a.stranded {
		stranded[b] = s
	}
	return pending, stranded
}

// Load replaces the ledger contents from persisted state.
func (a *Accumulator) Load(state *model.EngineState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = make(map[model.Bucket]int64, len(model.Buckets))
	for b, v := range state.Accumulated {
		if v > 0 {
			a.pending[b] = v
		}
	}
	a.stranded = make(map[model.Bucket]model.Stranded)
	for b, s := range state.Stranded {
		if !s.Empty() {
			a.stranded[b] = s
		}
	}
}
