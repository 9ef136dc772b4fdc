package allocation

import (
	"context"

	"github.com/shopspring/decimal"

	"FeeAllocator/internal/gateway"
	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
	"FeeAllocator/internal/strategy"
)

// MomentumSource yields the current oscillator reading.
type MomentumSource interface {
	Compute() model.MomentumReading
}

// Buyback buys the tracked asset when momentum allows it. The multiplier
// scales the effective input (share plus pending) and the purchase is capped
// at that input, so no tier ever spends more than the bucket holds.
type Buyback struct {
	Env
	Swap     gateway.Swap
	Momentum MomentumSource
}

func (a *Buyback) Bucket() model.Bucket { return model.BucketBuyback }

func (a *Buyback) Run(ctx context.Context, req Request) model.ActionResult {
	res := begin(req)
	amount := req.Amount()
	if amount <= 0 {
		return res
	}

	action := strategy.Classify(a.Momentum.Compute())
	if !action.ShouldBuy() {
		return deferred(res, action.Reason)
	}
	res.Reason = action.Reason

	buy := BuyAmount(amount, action.Multiplier)
	if buy <= 0 {
		return deferred(res, "buy amount rounds to zero")
	}

	sw, err := retry.Do(ctx, a.Exec, "buyback.convert", func(ctx context.Context) (gateway.SwapReceipt, error) {
		return a.Swap.Convert(ctx, a.AssetID, buy, gateway.Buy)
	})
	if err != nil {
		return failed(res, err)
	}
	addRef(&res, sw.Signature)
	res.Spent = buy
	res.Asset = sw.Received
	res.Leftover = amount - buy
	return succeed(res)
}

// BuyAmount returns floor(amount * multiplier) capped at amount.
func BuyAmount(amount int64, multiplier float64) int64 {
	if amount <= 0 || multiplier <= 0 {
		return 0
	}
	buy := decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(multiplier)).Floor().IntPart()
	if buy > amount {
		buy = amount
	}
	return buy
}
