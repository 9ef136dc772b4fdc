package allocation

import (
	"context"

	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/gateway"
	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
	"FeeAllocator/internal/selector"
)

// DefaultMinHolders gates the reward until enough holders exist.
const DefaultMinHolders = 5

// ReasonInsufficientHolders is the deferral reason below the holder gate.
const ReasonInsufficientHolders = "insufficient holders"

// Reward converts the bucket into the tracked asset and sends all of it to one
// holder drawn with probability proportional to balance.
type Reward struct {
	Env
	Swap            gateway.Swap
	Holders         gateway.Holders
	MinHolders      int
	OperatingWallet string
	Rand            selector.Rand
}

func (a *Reward) Bucket() model.Bucket { return model.BucketHolderReward }

func (a *Reward) Run(ctx context.Context, req Request) model.ActionResult {
	res := begin(req)
	amount := req.Amount()
	if amount <= 0 && req.Stranded.Asset <= 0 {
		return res
	}

	holders, err := retry.Do(ctx, a.Exec, "reward.holders", func(ctx context.Context) ([]model.Holder, error) {
		return a.Holders.Holders(ctx, a.AssetID)
	})
	if err != nil {
		return failed(res, err)
	}
	eligible := selector.Eligible(holders, a.OperatingWallet)
	if len(eligible) == 0 || len(eligible) < a.MinHolders {
		log.Info().Int("eligible", len(eligible)).Int("min", a.MinHolders).Msg("holder reward deferred")
		return deferred(res, ReasonInsufficientHolders)
	}
	w, err := selector.NewWeighted(eligible)
	if err != nil {
		return deferred(res, ReasonInsufficientHolders)
	}
	winner := w.Pick(a.Rand)
	res.Recipient = winner.Address

	var received int64
	if amount > 0 {
		sw, err := retry.Do(ctx, a.Exec, "reward.convert", func(ctx context.Context) (gateway.SwapReceipt, error) {
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
		conf, err := retry.Do(ctx, a.Exec, "reward.transfer", func(ctx context.Context) (gateway.Confirmation, error) {
			return a.Holders.Transfer(ctx, a.AssetID, winner.Address, total)
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
