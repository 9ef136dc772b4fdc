// Package allocation implements the four per-cycle allocation actions.
//
// Each action receives the bucket's effective input (this cycle's share plus
// whatever is pending) and reports a tagged model.ActionResult. Actions never
// touch the accumulator; the orchestrator applies the result:
//
//   - SUCCEEDED: pending becomes Leftover (usually zero)
//   - FAILED with KindPartial: pending becomes Leftover, the intermediate amount is in Stranded
//   - FAILED or DEFERRED otherwise: the share is added to pending
//   - SKIPPED: nothing changes
package allocation

import (
	"context"

	"FeeAllocator/internal/model"
	"FeeAllocator/internal/retry"
)

// Request is the input of one action for one cycle.
type Request struct {
	Bucket   model.Bucket
	Share    int64
	Pending  int64
	Stranded model.Stranded
}

// Amount is the effective input: share plus pending.
func (r Request) Amount() int64 { return r.Share + r.Pending }

// Action is one allocation destination.
type Action interface {
	Bucket() model.Bucket
	Run(ctx context.Context, req Request) model.ActionResult
}

// Env carries what every action needs to talk to external services.
type Env struct {
	AssetID string
	Exec    *retry.Executor
}

func begin(req Request) model.ActionResult {
	return model.ActionResult{
		Bucket:   req.Bucket,
		Status:   model.StatusSkipped,
		Share:    req.Share,
		Input:    req.Amount(),
		Stranded: req.Stranded,
	}
}

func succeed(res model.ActionResult) model.ActionResult {
	res.Status = model.StatusSucceeded
	return res
}

func deferred(res model.ActionResult, reason string) model.ActionResult {
	res.Status = model.StatusDeferred
	res.ErrorKind = model.KindPrecondition
	res.Reason = reason
	return res
}

func failed(res model.ActionResult, err error) model.ActionResult {
	res.Status = model.StatusFailed
	res.ErrorKind = retry.KindOf(err)
	res.Detail = err.Error()
	return res
}

// partial marks a failure after an earlier step already moved funds.
// The caller sets Stranded and Leftover.
func partial(res model.ActionResult, err error) model.ActionResult {
	res.Status = model.StatusFailed
	res.ErrorKind = model.KindPartial
	res.Detail = err.Error()
	return res
}

func addRef(res *model.ActionResult, sig string) {
	if sig != "" {
		res.TxRefs = append(res.TxRefs, sig)
	}
}
