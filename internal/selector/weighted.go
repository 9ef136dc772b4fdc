package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"FeeAllocator/internal/model"
)

// ErrNoHolders is returned when the candidate list is empty.
var ErrNoHolders = errors.New("no holders to select from")

// Rand is the randomness source. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand uses the package-level math/rand/v2 source.
var DefaultRand Rand = globalRand{}

// Weighted picks one holder with probability proportional to balance.
// Selection is a binary search over prefix sums, in the order holders were given.
type Weighted struct {
	holders []model.Holder
	prefix  []float64
	total   float64
}

// NewWeighted builds a selector. Every balance must be positive.
func NewWeighted(holders []model.Holder) (*Weighted, error) {
	if len(holders) == 0 {
		return nil, ErrNoHolders
	}
	w := &Weighted{
		holders: make([]model.Holder, len(holders)),
		prefix:  make([]float64, len(holders)),
	}
	copy(w.holders, holders)
	for i, h := range holders {
		if !(h.Balance > 0) {
			return nil, fmt.Errorf("holder %s has non-positive balance %v", h.Address, h.Balance)
		}
		w.total += h.Balance
		w.prefix[i] = w.total
	}
	return w, nil
}

// Len returns the number of candidates.
func (w *Weighted) Len() int { return len(w.holders) }

// Total returns the sum of all balances.
func (w *Weighted) Total() float64 { return w.total }

// Pick draws r in [0, total) and returns the first holder whose running sum reaches r.
// Falls back to the last holder if rounding leaves r past the final sum.
func (w *Weighted) Pick(src Rand) model.Holder {
	if src == nil {
		src = DefaultRand
	}
	r := src.Float64() * w.total
	i := sort.SearchFloat64s(w.prefix, r)
	if i >= len(w.holders) {
		i = len(w.holders) - 1
	}
	return w.holders[i]
}

// Eligible drops zero-balance holders and any excluded addresses, keeping order.
func Eligible(holders []model.Holder, exclude ...string) []model.Holder {
	skip := make(map[string]struct{}, len(exclude))
	for _, a := range exclude {
		if a != "" {
			skip[a] = struct{}{}
		}
	}
	out := make([]model.Holder, 0, len(holders))
	for _, h := range holders {
		if !(h.Balance > 0) {
			continue
		}
		if _, ok := skip[h.Address]; ok {
			continue
		}
		out = append(out, h)
	}
	return out
}
