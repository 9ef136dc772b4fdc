package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeeAllocator/internal/allocation"
	"FeeAllocator/internal/calculator"
	"FeeAllocator/internal/fund"
	"FeeAllocator/internal/model"
)

// stubAction returns a canned status and counts calls.
type stubAction struct {
	bucket model.Bucket
	status model.ActionStatus
	kind   model.ErrorKind
	calls  atomic.Int32
	panics bool
}

func (s *stubAction) Bucket() model.Bucket { return s.bucket }

func (s *stubAction) Run(_ context.Context, req allocation.Request) model.ActionResult {
	s.calls.Add(1)
	if s.panics {
		panic("boom")
	}
	res := model.ActionResult{Bucket: s.bucket, Status: s.status, Share: req.Share, Input: req.Amount(), ErrorKind: s.kind}
	if s.status == model.StatusSucceeded {
		res.Spent = req.Amount()
	}
	return res
}

func stubs(status model.ActionStatus) []*stubAction {
	out := make([]*stubAction, 0, len(model.Buckets))
	for _, b := range model.Buckets {
		out = append(out, &stubAction{bucket: b, status: status})
	}
	return out
}

func newStubOrchestrator(t *testing.T, actions []*stubAction) (*Orchestrator, *fund.Accumulator, *fund.Stats) {
	t.Helper()
	acc, stats := fund.NewAccumulator(), fund.NewStats()
	as := make([]allocation.Action, len(actions))
	for i, a := range actions {
		as[i] = a
	}
	o, err := NewOrchestrator(DefaultMinDistribution, calculator.DefaultPercentages, acc, stats, as...)
	require.NoError(t, err)
	return o, acc, stats
}

func TestNewOrchestrator_RequiresEveryBucket(t *testing.T) {
	acc, stats := fund.NewAccumulator(), fund.NewStats()
	s := stubs(model.StatusSucceeded)
	_, err := NewOrchestrator(0, calculator.DefaultPercentages, acc, stats, s[0], s[1], s[2])
	assert.Error(t, err)

	_, err = NewOrchestrator(0, calculator.DefaultPercentages, acc, stats, s[0], s[0], s[1], s[2], s[3])
	assert.Error(t, err)

	_, err = NewOrchestrator(0, calculator.Percentages{Burn: 50}, acc, stats, s[0], s[1], s[2], s[3])
	assert.Error(t, err)
}

func TestOrchestrator_BelowThresholdTouchesNothing(t *testing.T) {
	s := stubs(model.StatusSucceeded)
	o, acc, stats := newStubOrchestrator(t, s)

	d := o.Distribute(context.Background(), 1)
	assert.Equal(t, model.OutcomeBelowThreshold, d.Outcome)
	assert.Empty(t, d.Actions)
	for _, a := range s {
		assert.Zero(t, a.calls.Load())
	}
	assert.Zero(t, acc.Total())
	assert.Zero(t, stats.Snapshot().DistributionCount)
}

func TestOrchestrator_FailureDoesNotBlockOthers(t *testing.T) {
	s := stubs(model.StatusSucceeded)
	s[2].status = model.StatusFailed
	s[2].kind = model.KindTerminal
	o, acc, stats := newStubOrchestrator(t, s)

	d := o.Distribute(context.Background(), 1_000_000)
	require.Len(t, d.Actions, 4)
	assert.Equal(t, model.StatusFailed, d.Actions[2].Status)
	assert.Equal(t, int64(250_000), acc.Pending(model.BucketHolderReward))
	assert.Equal(t, int64(750_000), stats.Snapshot().TotalDistributed)
	assert.Equal(t, int64(1), stats.Snapshot().DistributionCount)
}

func TestOrchestrator_PanicBecomesFailure(t *testing.T) {
	s := stubs(model.StatusSucceeded)
	s[0].panics = true
	o, acc, _ := newStubOrchestrator(t, s)

	d := o.Distribute(context.Background(), 1_000_000)
	burn, ok := d.Action(model.BucketBurn)
	require.True(t, ok)
	assert.Equal(t, model.StatusFailed, burn.Status)
	assert.Equal(t, int64(250_000), acc.Pending(model.BucketBurn))
	assert.Equal(t, model.StatusSucceeded, d.Actions[1].Status)
}

func TestOrchestrator_RepeatedFailuresAccumulateEveryShare(t *testing.T) {
	s := stubs(model.StatusSucceeded)
	s[1].status = model.StatusDeferred
	o, acc, _ := newStubOrchestrator(t, s)

	var want int64
	for _, total := range []int64{1_000_000, 333_333, 7_777_777, 200_001} {
		d := o.Distribute(context.Background(), total)
		want += d.Split.Buyback
	}
	assert.Equal(t, want, acc.Pending(model.BucketBuyback))
	assert.Zero(t, acc.Pending(model.BucketBurn))
}

func TestOrchestrator_SuccessClearsPending(t *testing.T) {
	s := stubs(model.StatusSucceeded)
	s[3].status = model.StatusFailed
	o, acc, _ := newStubOrchestrator(t, s)

	o.Distribute(context.Background(), 1_000_000)
	require.Equal(t, int64(250_000), acc.Pending(model.BucketLPPool))

	s[3].status = model.StatusSucceeded
	d := o.Distribute(context.Background(), 1_000_000)
	pool, _ := d.Action(model.BucketLPPool)
	assert.Equal(t, int64(500_000), pool.Input)
	assert.Zero(t, acc.Pending(model.BucketLPPool))
}

func TestOrchestrator_Flush(t *testing.T) {
	s := stubs(model.StatusDeferred)
	o, acc, _ := newStubOrchestrator(t, s)

	res := o.Flush(context.Background())
	assert.True(t, res.Empty)
	assert.Nil(t, res.Distribution)
	assert.NotEmpty(t, res.ID)

	o.Distribute(context.Background(), 1_000_000)
	require.Equal(t, int64(1_000_000), acc.Total())

	for _, a := range s {
		a.status = model.StatusSucceeded
	}
	res = o.Flush(context.Background())
	assert.False(t, res.Empty)
	assert.Equal(t, int64(1_000_000), res.Total)
	require.NotNil(t, res.Distribution)
	assert.Equal(t, model.OutcomeDistributed, res.Distribution.Outcome)
	assert.Zero(t, acc.Total())
}

func TestOrchestrator_FlushBelowThresholdRestores(t *testing.T) {
	s := stubs(model.StatusDeferred)
	o, acc, _ := newStubOrchestrator(t, s)
	o.Distribute(context.Background(), 200_000)

	s[0].status = model.StatusSucceeded
	acc.Retain(model.BucketBurn, 0)
	acc.Retain(model.BucketBuyback, 0)
	acc.Retain(model.BucketHolderReward, 0)
	require.Equal(t, int64(50_000), acc.Total())

	res := o.Flush(context.Background())
	require.NotNil(t, res.Distribution)
	assert.Equal(t, model.OutcomeBelowThreshold, res.Distribution.Outcome)
	assert.Equal(t, int64(50_000), acc.Pending(model.BucketLPPool))
	assert.Equal(t, int32(1), s[0].calls.Load())
}
