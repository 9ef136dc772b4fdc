package gateway

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"FeeAllocator/internal/model"
)

// Simulator is an in-memory Gateway for dry runs and tests.
// Set the Fail* fields to inject errors into a capability.
type Simulator struct {
	mu sync.Mutex

	// Rate is tracked-asset units received per native unit.
	Rate        float64
	ClaimAmount int64
	PriceValue  float64
	Drift       float64
	HolderList  []model.Holder
	ShareID     string

	FailClaim     error
	FailPrice     error
	FailConvert   error
	FailBurn      error
	FailDeposit   error
	FailBurnShare error
	FailHolders   error
	FailTransfer  error

	calls map[string]int
	rng   *rand.Rand

	Burned      int64
	SharesBurn  int64
	Transferred map[string]int64
}

// NewSimulator creates a simulator with a fixed seed so runs are repeatable.
func NewSimulator(seed uint64) *Simulator {
	holders := make([]model.Holder, 0, 8)
	for i := 1; i <= 8; i++ {
		holders = append(holders, model.Holder{Address: fmt.Sprintf("holder-%02d", i), Balance: float64(i * 1000)})
	}
	return &Simulator{
		Rate:        1000,
		PriceValue:  0.001,
		Drift:       0.02,
		HolderList:  holders,
		ShareID:     "sim-lp-share",
		calls:       make(map[string]int),
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Transferred: make(map[string]int64),
	}
}

func (s *Simulator) Name() string { return "simulator" }

// Calls returns how often op was invoked.
func (s *Simulator) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of calls across all capabilities.
func (s *Simulator) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *Simulator) enter(op string, fail error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[op]++
	return fail
}

func sig() string { return uuid.NewString() }

func (s *Simulator) Claim(_ context.Context, _ string) (ClaimReceipt, error) {
	if err := s.enter("claim", s.FailClaim); err != nil {
		return ClaimReceipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClaimAmount <= 0 {
		return ClaimReceipt{}, ErrNoFeesAvailable
	}
	return ClaimReceipt{Amount: s.ClaimAmount, Reference: sig()}, nil
}

// Price walks the last price by up to ±Drift per call.
func (s *Simulator) Price(_ context.Context, _ string) (float64, error) {
	if err := s.enter("price", s.FailPrice); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng != nil && s.Drift > 0 {
		s.PriceValue *= 1 + (s.rng.Float64()*2-1)*s.Drift
	}
	return s.PriceValue, nil
}

func (s *Simulator) Convert(_ context.Context, _ string, amount int64, dir Direction) (SwapReceipt, error) {
	if err := s.enter("convert", s.FailConvert); err != nil {
		return SwapReceipt{}, err
	}
	received := int64(float64(amount) * s.Rate)
	if dir == Sell && s.Rate > 0 {
		received = int64(float64(amount) / s.Rate)
	}
	return SwapReceipt{Received: received, Signature: sig()}, nil
}

func (s *Simulator) BurnAsset(_ context.Context, _ string, amount int64) (Confirmation, error) {
	if err := s.enter("burn", s.FailBurn); err != nil {
		return Confirmation{}, err
	}
	s.mu.Lock()
	s.Burned += amount
	s.mu.Unlock()
	return Confirmation{Signature: sig()}, nil
}

func (s *Simulator) Deposit(_ context.Context, _ string, nativeAmount, assetAmount int64) (PoolReceipt, error) {
	if err := s.enter("deposit", s.FailDeposit); err != nil {
		return PoolReceipt{}, err
	}
	return PoolReceipt{ShareID: s.ShareID, Shares: (nativeAmount + assetAmount) / 2, Signature: sig()}, nil
}

func (s *Simulator) BurnShare(_ context.Context, _ string, amount int64) (Confirmation, error) {
	if err := s.enter("burn_share", s.FailBurnShare); err != nil {
		return Confirmation{}, err
	}
	s.mu.Lock()
	s.SharesBurn += amount
	s.mu.Unlock()
	return Confirmation{Signature: sig()}, nil
}

func (s *Simulator) Holders(_ context.Context, _ string) ([]model.Holder, error) {
	if err := s.enter("holders", s.FailHolders); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Holder, len(s.HolderList))
	copy(out, s.HolderList)
	return out, nil
}

func (s *Simulator) Transfer(_ context.Context, _ string, recipient string, amount int64) (Confirmation, error) {
	if err := s.enter("transfer", s.FailTransfer); err != nil {
		return Confirmation{}, err
	}
	s.mu.Lock()
	if s.Transferred == nil {
		s.Transferred = make(map[string]int64)
	}
	s.Transferred[recipient] += amount
	s.mu.Unlock()
	return Confirmation{Signature: sig()}, nil
}
