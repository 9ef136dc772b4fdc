package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator(t *testing.T) {
	ctx := context.Background()
	s := NewSimulator(1)

	_, err := s.Claim(ctx, "MINT")
	assert.ErrorIs(t, err, ErrNoFeesAvailable)

	s.ClaimAmount = 500
	rec, err := s.Claim(ctx, "MINT")
	require.NoError(t, err)
	assert.Equal(t, int64(500), rec.Amount)

	sw, err := s.Convert(ctx, "MINT", 3, Buy)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), sw.Received)

	p, err := s.Price(ctx, "MINT")
	require.NoError(t, err)
	assert.InDelta(t, 0.001, p, 0.001*0.021)

	s.FailBurn = errors.New("rejected")
	_, err = s.BurnAsset(ctx, "MINT", 1)
	assert.Error(t, err)
	assert.Equal(t, 1, s.Calls("burn"))
	assert.Zero(t, s.Burned)
	assert.Equal(t, 5, s.TotalCalls())
}
