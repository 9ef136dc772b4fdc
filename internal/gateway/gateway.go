package gateway

import (
	"context"
	"errors"

	"FeeAllocator/internal/model"
)

// ErrNoFeesAvailable is returned by Claim when nothing has accrued.
// Callers treat it as a zero claim, not a failure.
var ErrNoFeesAvailable = errors.New("no fees available")

// Direction of a swap relative to the tracked asset.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// ClaimReceipt is the result of claiming accrued fees.
type ClaimReceipt struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

// SwapReceipt is the result of a conversion.
type SwapReceipt struct {
	Received  int64  `json:"received"`
	Signature string `json:"signature"`
}

// Confirmation acknowledges a burn or transfer.
type Confirmation struct {
	Signature string `json:"signature"`
}

// PoolReceipt is the result of a two-sided pool deposit.
type PoolReceipt struct {
	ShareID   string `json:"share_id"`
	Shares    int64  `json:"shares"`
	Signature string `json:"signature"`
}

// FeeSource claims accrued fees and quotes the asset price.
type FeeSource interface {
	Claim(ctx context.Context, assetID string) (ClaimReceipt, error)
	Price(ctx context.Context, assetID string) (float64, error)
}

// Swap converts native currency into the tracked asset and destroys asset.
type Swap interface {
	Convert(ctx context.Context, assetID string, amount int64, dir Direction) (SwapReceipt, error)
	BurnAsset(ctx context.Context, assetID string, amount int64) (Confirmation, error)
}

// Pool deposits into the liquidity pool and destroys pool shares.
type Pool interface {
	Deposit(ctx context.Context, assetID string, nativeAmount, assetAmount int64) (PoolReceipt, error)
	BurnShare(ctx context.Context, shareID string, amount int64) (Confirmation, error)
}

// Holders lists asset holders and pays them. Transfer creates the
// recipient's associated account if it does not exist.
type Holders interface {
	Holders(ctx context.Context, assetID string) ([]model.Holder, error)
	Transfer(ctx context.Context, assetID, recipient string, amount int64) (Confirmation, error)
}

// Gateway bundles every capability the engine consumes.
type Gateway interface {
	FeeSource
	Swap
	Pool
	Holders
	Name() string
}
