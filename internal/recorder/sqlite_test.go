package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeeAllocator/internal/model"
)

func TestSQLiteRecorder_ClaimsAndActions(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "sub", "history.db"))
	require.NoError(t, err)
	defer r.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, r.RecordClaim(&ClaimEvent{
		CycleID: "c1", Status: model.CycleDistributed, Claimed: 1_000_000_000,
		Distributable: 995_000_000, Reference: "sig", At: at,
	}))

	d := &model.DistributionResult{
		Outcome: model.OutcomeDistributed,
		Total:   995_000_000,
		At:      at,
		Actions: []model.ActionResult{
			{Bucket: model.BucketBurn, Status: model.StatusSucceeded, Spent: 248_750_000, TxRefs: []string{"a", "b"}},
			{Bucket: model.BucketBuyback, Status: model.StatusDeferred, Reason: "insufficient data"},
			{Bucket: model.BucketHolderReward, Status: model.StatusSucceeded, Recipient: "holder-01"},
			{Bucket: model.BucketLPPool, Status: model.StatusSucceeded, Fallback: true},
		},
	}
	evts := ActionEvents("c1", "cycle", d)
	require.Len(t, evts, 4)
	require.NoError(t, r.RecordActions(evts))

	n, err := r.ActionCount("c1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var claimed int64
	require.NoError(t, r.db.QueryRow(`SELECT claimed FROM claims WHERE cycle_id = ?`, "c1").Scan(&claimed))
	assert.Equal(t, int64(1_000_000_000), claimed)

	var reason string
	require.NoError(t, r.db.QueryRow(`SELECT reason FROM allocation_actions WHERE bucket = ?`, "buyback").Scan(&reason))
	assert.Equal(t, "insufficient data", reason)
}

func TestSQLiteRecorder_EmptyBatch(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer r.Close()
	assert.NoError(t, r.RecordActions(nil))
	assert.Nil(t, ActionEvents("x", "cycle", nil))
}
