package allocation

import (
	"context"

	"FeeAllocator/internal/gateway"
	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
)

// Burn converts native currency to the tracked asset and destroys all of it.
type Burn struct {
	Env
	Swap gateway.Swap
}

func (a *Burn) Bucket() model.Bucket { return model.BucketBurn }

func (a *Burn) Run(ctx context.Context, req Request) model.ActionResult {
	res := begin(req)
	amount := req.Amount()
	if amount <= 0 && req.Stranded.Asset <= 0 {
		return res
	}

	var received int64
	if amount > 0 {
		sw, err := retry.Do(ctx, a.Exec, "burn.convert", func(ctx context.Context) (gateway.SwapReceipt, error) {
			return a.Swap.Convert(ctx, a.AssetID, amount, gateway.Buy)
		})
		if err != nil {
			return failed(res, err)
		}
		received = sw.Received
		res.Spent = amount
		addRef(&res, sw.Signature)
	}

	total := received + req.Stranded.Asset
	if total > 0 {
		conf, err := retry.Do(ctx, a.Exec, "burn.destroy", func(ctx context.Context) (gateway.Confirmation, error) {
			return a.Swap.BurnAsset(ctx, a.AssetID, total)
		})
		if err != nil {
			res.Stranded.Asset = total
			return partial(res, err)
		}
		addRef(&res, conf.Signature)
	}
	res.Stranded.Asset = 0
	res.Asset = total
	return succeed(res)
}
