package model

import "time"

// ActionStatus is the terminal state of one allocation action in one cycle.
type ActionStatus string

const (
	StatusSkipped   ActionStatus = "SKIPPED"
	StatusSucceeded ActionStatus = "SUCCEEDED"
	StatusDeferred  ActionStatus = "DEFERRED"
	StatusFailed    ActionStatus = "FAILED"
)

// ErrorKind classifies why an action failed.
type ErrorKind string

const (
	KindTransient    ErrorKind = "TRANSIENT"
	KindTerminal     ErrorKind = "TERMINAL"
	KindPrecondition ErrorKind = "PRECONDITION"
	KindPartial      ErrorKind = "PARTIAL"
)

// ActionResult is the tagged outcome of one action. Reason is set for
// deferrals, ErrorKind and Detail for failures.
type ActionResult struct {
	Bucket    Bucket       `json:"bucket"`
	Status    ActionStatus `json:"status"`
	Share     int64        `json:"share"`
	Input     int64        `json:"input"`
	Spent     int64        `json:"spent"`
	Leftover  int64        `json:"leftover"`
	Asset     int64        `json:"asset"`
	Shares    int64        `json:"shares,omitempty"`
	Recipient string       `json:"recipient,omitempty"`
	Fallback  bool         `json:"fallback,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	ErrorKind ErrorKind    `json:"error_kind,omitempty"`
	Detail    string       `json:"detail,omitempty"`
	TxRefs    []string     `json:"tx_refs,omitempty"`
	Stranded  Stranded     `json:"stranded"`
}

// Succeeded reports whether the action completed, including via fallback.
func (r ActionResult) Succeeded() bool { return r.Status == StatusSucceeded }

// Partial reports a failure after an earlier step already moved funds.
func (r ActionResult) Partial() bool { return r.Status == StatusFailed && r.ErrorKind == KindPartial }

// Moved reports whether native funds left the wallet: the action succeeded
// or failed partway. Spent, Asset and Shares only count completed steps.
func (r ActionResult) Moved() bool { return r.Succeeded() || r.Partial() }

// DistributionOutcome tells apart a real distribution from a short-circuit.
type DistributionOutcome string

const (
	OutcomeDistributed    DistributionOutcome = "DISTRIBUTED"
	OutcomeBelowThreshold DistributionOutcome = "BELOW_THRESHOLD"
)

// DistributionResult aggregates all four action results of one distribute call.
type DistributionResult struct {
	Outcome DistributionOutcome `json:"outcome"`
	Total   int64               `json:"total"`
	Split   FeeSplit            `json:"split"`
	Actions []ActionResult      `json:"actions,omitempty"`
	At      time.Time           `json:"at"`
}

// Action returns the result for bucket b.
func (d DistributionResult) Action(b Bucket) (ActionResult, bool) {
	for _, a := range d.Actions {
		if a.Bucket == b {
			return a, true
		}
	}
	return ActionResult{}, false
}

// Spent sums native units consumed, including by partial failures.
func (d DistributionResult) Spent() int64 {
	var total int64
	for _, a := range d.Actions {
		if a.Moved() {
			total += a.Spent
		}
	}
	return total
}

// CycleStatus is the outcome of one claim-and-distribute cycle.
type CycleStatus string

const (
	CycleNothingClaimed        CycleStatus = "NOTHING_CLAIMED"
	CycleClaimedNotDistributed CycleStatus = "CLAIMED_NOT_DISTRIBUTED"
	CycleDistributed           CycleStatus = "DISTRIBUTED"
	CycleClaimFailed           CycleStatus = "CLAIM_FAILED"
)

// CycleResult combines the claim and distribution of one cycle.
type CycleResult struct {
	ID            string              `json:"id"`
	Status        CycleStatus         `json:"status"`
	Claimed       int64               `json:"claimed"`
	Reference     string              `json:"reference,omitempty"`
	Distributable int64               `json:"distributable"`
	Distribution  *DistributionResult `json:"distribution,omitempty"`
	Error         string              `json:"error,omitempty"`
	StartedAt     time.Time           `json:"started_at"`
	Duration      time.Duration       `json:"duration"`
}

// FlushResult is returned by a manual flush. Empty means nothing was pending.
type FlushResult struct {
	ID           string              `json:"id"`
	Empty        bool                `json:"empty"`
	Total        int64               `json:"total"`
	Distribution *DistributionResult `json:"distribution,omitempty"`
}
