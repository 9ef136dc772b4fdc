package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/allocation"
	"FeeAllocator/internal/calculator"
	"FeeAllocator/internal/fund"
	"FeeAllocator/internal/model"
)

// DefaultMinDistribution is 0.0001 of a 9-decimal native unit.
const DefaultMinDistribution int64 = 100_000

// Orchestrator splits a fee total across the four actions, runs them
// independently and applies each result to the accumulator and counters.
type Orchestrator struct {
	minDistribution int64
	pct             calculator.Percentages
	actions         []allocation.Action
	acc             *fund.Accumulator
	stats           *fund.Stats
	now             func() time.Time
}

// NewOrchestrator requires exactly one action per bucket.
func NewOrchestrator(minDistribution int64, pct calculator.Percentages, acc *fund.Accumulator, stats *fund.Stats, actions ...allocation.Action) (*Orchestrator, error) {
	if err := pct.Validate(); err != nil {
		return nil, err
	}
	if minDistribution < 0 {
		return nil, fmt.Errorf("min distribution must not be negative, got %d", minDistribution)
	}
	byBucket := make(map[model.Bucket]allocation.Action, len(actions))
	for _, a := range actions {
		if _, dup := byBucket[a.Bucket()]; dup {
			return nil, fmt.Errorf("duplicate action for bucket %s", a.Bucket())
		}
		byBucket[a.Bucket()] = a
	}
	ordered := make([]allocation.Action, 0, len(model.Buckets))
	for _, b := range model.Buckets {
		a, ok := byBucket[b]
		if !ok {
			return nil, fmt.Errorf("no action for bucket %s", b)
		}
		ordered = append(ordered, a)
	}
	return &Orchestrator{
		minDistribution: minDistribution,
		pct:             pct,
		actions:         ordered,
		acc:             acc,
		stats:           stats,
		now:             time.Now,
	}, nil
}

// MinDistribution returns the threshold below which Distribute is a no-op.
func (o *Orchestrator) MinDistribution() int64 { return o.minDistribution }

// Distribute runs one distribution of total. Below the minimum it returns
// OutcomeBelowThreshold without touching anything.
func (o *Orchestrator) Distribute(ctx context.Context, total int64) model.DistributionResult {
	res := model.DistributionResult{Total: total, At: o.now()}
	if total < o.minDistribution || total <= 0 {
		res.Outcome = model.OutcomeBelowThreshold
		log.Debug().Int64("total", total).Int64("min", o.minDistribution).Msg("distribution below threshold")
		return res
	}

	res.Outcome = model.OutcomeDistributed
	res.Split = calculator.Split(total, o.pct)

	reqs := make([]allocation.Request, len(o.actions))
	for i, a := range o.actions {
		b := a.Bucket()
		reqs[i] = allocation.Request{
			Bucket:   b,
			Share:    res.Split.Share(b),
			Pending:  o.acc.Pending(b),
			Stranded: o.acc.Stranded(b),
		}
	}

	results := make([]model.ActionResult, len(o.actions))
	var wg sync.WaitGroup
	for i, a := range o.actions {
		wg.Add(1)
		go func(i int, a allocation.Action) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = model.ActionResult{
						Bucket:    reqs[i].Bucket,
						Status:    model.StatusFailed,
						Share:     reqs[i].Share,
						Input:     reqs[i].Amount(),
						ErrorKind: model.KindTerminal,
						Detail:    fmt.Sprintf("panic: %v", r),
						Stranded:  reqs[i].Stranded,
					}
				}
			}()
			results[i] = a.Run(ctx, reqs[i])
		}(i, a)
	}
	wg.Wait()

	for _, r := range results {
		o.apply(r)
	}
	res.Actions = results
	o.stats.RecordDistribution(res)

	log.Info().Int64("total", total).Int64("spent", res.Spent()).Msg("distribution complete")
	return res
}

func (o *Orchestrator) apply(r model.ActionResult) {
	switch {
	case r.Status == model.StatusSucceeded:
		o.acc.Retain(r.Bucket, r.Leftover)
	case r.Partial():
		o.acc.Retain(r.Bucket, r.Leftover)
	case r.Status == model.StatusFailed, r.Status == model.StatusDeferred:
		o.acc.Carry(r.Bucket, r.Share)
	}
	o.acc.SetStranded(r.Bucket, r.Stranded)
	o.stats.RecordAction(r)

	ev := log.Info()
	if r.Status == model.StatusFailed {
		ev = log.Warn().Str("kind", string(r.ErrorKind)).Str("detail", r.Detail)
	}
	ev.Str("bucket", string(r.Bucket)).
		Str("status", string(r.Status)).
		Int64("share", r.Share).
		Int64("spent", r.Spent).
		Int64("pending", o.acc.Pending(r.Bucket)).
		Str("reason", r.Reason).
		Msg("action result")
}

// Flush drains every pending bucket and distributes the sum as a fresh total.
// If the sum is under the minimum the amounts are put back untouched.
func (o *Orchestrator) Flush(ctx context.Context) model.FlushResult {
	res := model.FlushResult{ID: uuid.NewString()}
	drained := o.acc.Drain()
	for _, v := range drained {
		res.Total += v
	}
	if res.Total <= 0 {
		res.Empty = true
		return res
	}
	if res.Total < o.minDistribution {
		o.acc.Restore(drained)
		d := model.DistributionResult{Outcome: model.OutcomeBelowThreshold, Total: res.Total, At: o.now()}
		res.Distribution = &d
		return res
	}

	log.Info().Str("flush_id", res.ID).Int64("total", res.Total).Msg("flushing accumulated buckets")
	d := o.Distribute(ctx, res.Total)
	res.Distribution = &d
	return res
}
