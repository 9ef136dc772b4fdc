package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FeeAllocator/internal/model"
)

func TestFormatter_Native(t *testing.T) {
	f := Formatter{Symbol: "SOL"}
	assert.Equal(t, "0.9950 SOL", f.Native(995_000_000))
	assert.Equal(t, "0.0001", Formatter{}.Native(100_000))
	assert.Equal(t, "12.3457", Formatter{Decimals: 6}.Native(12_345_678))
}

func TestFormatter_Cycle(t *testing.T) {
	f := Formatter{}
	res := model.CycleResult{
		Status:        model.CycleDistributed,
		Claimed:       1_000_000_000,
		Distributable: 995_000_000,
		StartedAt:     time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
		Distribution: &model.DistributionResult{
			Outcome: model.OutcomeDistributed,
			Actions: []model.ActionResult{
				{Bucket: model.BucketBurn, Status: model.StatusSucceeded, Share: 248_750_000, Spent: 248_750_000},
				{Bucket: model.BucketBuyback, Status: model.StatusDeferred, Reason: "insufficient data"},
				{Bucket: model.BucketHolderReward, Status: model.StatusSucceeded, Recipient: "holder<1>"},
				{Bucket: model.BucketLPPool, Status: model.StatusFailed, ErrorKind: model.KindTerminal, Detail: "pool closed"},
			},
		},
	}
	out := f.Cycle(res)
	assert.Contains(t, out, "2026-05-04 10:30")
	assert.Contains(t, out, "Claimed: 1.0000")
	assert.Contains(t, out, "insufficient data")
	assert.Contains(t, out, "holder&lt;1&gt;")
	assert.Contains(t, out, "TERMINAL: pool closed")
	assert.Contains(t, out, "Total spent: 0.2488")
}

func TestFormatter_CycleFailed(t *testing.T) {
	out := Formatter{}.Cycle(model.CycleResult{Status: model.CycleClaimFailed, Error: "fees.claim: <timeout>"})
	assert.Contains(t, out, "CLAIM_FAILED")
	assert.Contains(t, out, "&lt;timeout&gt;")
	assert.NotContains(t, out, "Distributable")
}

func TestFormatter_Flush(t *testing.T) {
	assert.Equal(t, "📭 Nothing accumulated", Formatter{}.Flush(model.FlushResult{Empty: true}))
	out := Formatter{}.Flush(model.FlushResult{
		Total:        50_000,
		Distribution: &model.DistributionResult{Outcome: model.OutcomeBelowThreshold, Total: 50_000},
	})
	assert.Contains(t, out, "Below threshold")
}

func TestFormatter_Status(t *testing.T) {
	st := model.Status{
		AssetID:     "MINT",
		Momentum:    model.MomentumReading{Samples: 3, Period: 14},
		Accumulated: map[model.Bucket]int64{model.BucketBuyback: 248_750_000},
		Stranded:    map[model.Bucket]model.Stranded{model.BucketBurn: {Asset: 42}},
		Stats:       model.Statistics{ClaimCount: 2, PoolSharesBurned: 7},
	}
	out := Formatter{}.Status(st)
	assert.Contains(t, out, "warming up (3/15 samples)")
	assert.Contains(t, out, "Buyback: 0.2488")
	assert.Contains(t, out, "stranded: 42 asset")
	assert.Contains(t, out, "Pool shares burned: 7")
	assert.Contains(t, out, "Loop: stopped")
}
