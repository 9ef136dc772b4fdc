package fund

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeeAllocator/internal/model"
)

func sampleState() *model.EngineState {
	return &model.EngineState{
		AssetID:     "MINT",
		Accumulated: map[model.Bucket]int64{model.BucketBuyback: 248_750_000},
		Stranded:    map[model.Bucket]model.Stranded{model.BucketBurn: {Asset: 12}},
		Stats:       model.Statistics{TotalClaimed: 1_000_000_000, ClaimCount: 1},
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json"))

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Accumulated)

	require.NoError(t, store.Save(ctx, sampleState()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(248_750_000), got.Accumulated[model.BucketBuyback])
	assert.Equal(t, int64(12), got.Stranded[model.BucketBurn].Asset)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	var m MemoryStore
	require.NoError(t, m.Save(ctx, sampleState()))
	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MINT", got.AssetID)
}

func TestRedisStore_Load(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(db, "feebot:state:MINT")

	mock.ExpectGet("feebot:state:MINT").SetVal(`{"asset_id":"MINT","accumulated":{"buyback":42},"stats":{"claim_count":3}}`)
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Accumulated[model.BucketBuyback])
	assert.Equal(t, int64(3), got.Stats.ClaimCount)

	mock.ExpectGet("feebot:state:MINT").RedisNil()
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Accumulated)

	mock.ExpectGet("feebot:state:MINT").SetErr(errors.New("connection reset"))
	_, err = store.Load(ctx)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Save(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStoreWithClient(db, "feebot:state:MINT")

	mock.Regexp().ExpectSet("feebot:state:MINT", `"asset_id":"MINT"`, 0).SetVal("OK")
	require.NoError(t, store.Save(ctx, sampleState()))

	mock.Regexp().ExpectSet("feebot:state:MINT", `.*`, 0).SetErr(errors.New("READONLY"))
	assert.Error(t, store.Save(ctx, sampleState()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
