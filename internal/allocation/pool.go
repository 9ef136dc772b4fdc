package allocation

import (
	"context"

	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/gateway"
	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
)

// PoolLock deposits half native and half converted asset into the liquidity
// pool and burns every pool share received.
//
// If the deposit fails, the converted half is burned instead. The result is
// SUCCEEDED with Fallback set, but Leftover holds the native half, so unlike
// every other success the bucket is not cleared: that half stays pending for
// the next deposit attempt.
type PoolLock struct {
	Env
	Swap gateway.Swap
	Pool gateway.Pool
}

func (a *PoolLock) Bucket() model.Bucket { return model.BucketLPPool }

func (a *PoolLock) Run(ctx context.Context, req Request) model.ActionResult {
	res := begin(req)
	amount := req.Amount()
	if amount <= 0 && req.Stranded.Empty() {
		return res
	}

	// Shares left over from an earlier cycle go first.
	if res.Stranded.Shares > 0 {
		if err := a.burnShares(ctx, &res, res.Stranded.ShareID, res.Stranded.Shares); err != nil {
			res.Leftover = amount
			return partial(res, err)
		}
		res.Stranded.Shares, res.Stranded.ShareID = 0, ""
	}

	if amount <= 0 {
		if err := a.burnAsset(ctx, &res, 0); err != nil {
			return partial(res, err)
		}
		return succeed(res)
	}

	nativeHalf := amount / 2
	swapHalf := amount - nativeHalf

	sw, err := retry.Do(ctx, a.Exec, "pool.convert", func(ctx context.Context) (gateway.SwapReceipt, error) {
		return a.Swap.Convert(ctx, a.AssetID, swapHalf, gateway.Buy)
	})
	if err != nil {
		return failed(res, err)
	}
	addRef(&res, sw.Signature)

	rec, err := retry.Do(ctx, a.Exec, "pool.deposit", func(ctx context.Context) (gateway.PoolReceipt, error) {
		return a.Pool.Deposit(ctx, a.AssetID, nativeHalf, sw.Received)
	})
	if err != nil {
		log.Warn().Err(err).Int64("asset", sw.Received).Msg("pool deposit failed, burning converted half")
		res.Spent = swapHalf
		res.Leftover = nativeHalf
		if err := a.burnAsset(ctx, &res, sw.Received); err != nil {
			return partial(res, err)
		}
		res.Fallback = true
		return succeed(res)
	}
	addRef(&res, rec.Signature)
	res.Spent = amount

	if rec.Shares > 0 {
		if err := a.burnShares(ctx, &res, rec.ShareID, rec.Shares); err != nil {
			res.Stranded.Shares = rec.Shares
			res.Stranded.ShareID = rec.ShareID
			return partial(res, err)
		}
	}
	// Asset stranded by an earlier failed fallback is burned too.
	if res.Stranded.Asset > 0 {
		if err := a.burnAsset(ctx, &res, 0); err != nil {
			return partial(res, err)
		}
	}
	return succeed(res)
}

func (a *PoolLock) burnShares(ctx context.Context, res *model.ActionResult, shareID string, amount int64) error {
	conf, err := retry.Do(ctx, a.Exec, "pool.burn_share", func(ctx context.Context) (gateway.Confirmation, error) {
		return a.Pool.BurnShare(ctx, shareID, amount)
	})
	if err != nil {
		return err
	}
	res.Shares += amount
	addRef(res, conf.Signature)
	return nil
}

// burnAsset destroys fresh plus any stranded asset. On failure the whole
// amount becomes stranded.
func (a *PoolLock) burnAsset(ctx context.Context, res *model.ActionResult, fresh int64) error {
	total := fresh + res.Stranded.Asset
	if total <= 0 {
		return nil
	}
	conf, err := retry.Do(ctx, a.Exec, "pool.burn_asset", func(ctx context.Context) (gateway.Confirmation, error) {
		return a.Swap.BurnAsset(ctx, a.AssetID, total)
	})
	if err != nil {
		res.Stranded.Asset = total
		return err
	}
	res.Stranded.Asset = 0
	res.Asset += total
	addRef(res, conf.Signature)
	return nil
}
