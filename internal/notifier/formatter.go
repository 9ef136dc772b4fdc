package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"FeeAllocator/internal/model"
)

// Formatter renders engine results as Telegram HTML.
type Formatter struct {
	// Decimals is the native unit precision, 9 if zero.
	Decimals int32
	// Symbol is appended to native amounts.
	Symbol string
}

// Native renders a native-unit amount in whole units.
func (f Formatter) Native(units int64) string {
	dec := f.Decimals
	if dec <= 0 {
		dec = 9
	}
	s := decimal.New(units, -dec).StringFixed(4)
	if f.Symbol != "" {
		s += " " + f.Symbol
	}
	return s
}

var statusIcon = map[model.ActionStatus]string{
	model.StatusSucceeded: "✅",
	model.StatusDeferred:  "⏸",
	model.StatusFailed:    "❌",
	model.StatusSkipped:   "➖",
}

var bucketLabel = map[model.Bucket]string{
	model.BucketBurn:         "Burn",
	model.BucketBuyback:      "Buyback",
	model.BucketHolderReward: "Holder reward",
	model.BucketLPPool:       "Pool lock",
}

// Cycle formats one claim-and-distribute cycle.
func (f Formatter) Cycle(res model.CycleResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💸 <b>Fee cycle</b> | %s\n\n", res.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Status: %s\n", res.Status))
	switch res.Status {
	case model.CycleClaimFailed:
		b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(res.Error)))
		return b.String()
	case model.CycleNothingClaimed:
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Claimed: %s\n", f.Native(res.Claimed)))
	b.WriteString(fmt.Sprintf("Distributable: %s\n", f.Native(res.Distributable)))
	if res.Distribution != nil {
		b.WriteString("\n")
		b.WriteString(f.Distribution(*res.Distribution))
	}
	return b.String()
}

// Distribution formats the per-action outcome lines.
func (f Formatter) Distribution(d model.DistributionResult) string {
	var b strings.Builder
	if d.Outcome == model.OutcomeBelowThreshold {
		b.WriteString(fmt.Sprintf("Below threshold: %s\n", f.Native(d.Total)))
		return b.String()
	}
	for _, a := range d.Actions {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s", statusIcon[a.Status], bucketLabel[a.Bucket], f.Native(a.Share)))
		switch a.Status {
		case model.StatusSucceeded:
			b.WriteString(fmt.Sprintf(" | spent %s", f.Native(a.Spent)))
			if a.Recipient != "" {
				b.WriteString(fmt.Sprintf(" → <code>%s</code>", html.EscapeString(a.Recipient)))
			}
			if a.Fallback {
				b.WriteString(" (burned, pool unavailable)")
			}
		case model.StatusDeferred:
			b.WriteString(fmt.Sprintf(" | %s", html.EscapeString(a.Reason)))
		case model.StatusFailed:
			b.WriteString(fmt.Sprintf(" | %s: %s", a.ErrorKind, html.EscapeString(a.Detail)))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Total spent: %s\n", f.Native(d.Spent())))
	return b.String()
}

// Flush formats a manual flush.
func (f Formatter) Flush(res model.FlushResult) string {
	if res.Empty {
		return "📭 Nothing accumulated"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚿 <b>Flush</b> %s\n\n", f.Native(res.Total)))
	if res.Distribution != nil {
		b.WriteString(f.Distribution(*res.Distribution))
	}
	return b.String()
}

// Status formats the engine snapshot.
func (f Formatter) Status(st model.Status) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Fee allocator</b> | <code>%s</code>\n\n", html.EscapeString(st.AssetID)))
	if st.Momentum.Ready {
		b.WriteString(fmt.Sprintf("Momentum: %.2f (%s ×%.1f)\n", st.Momentum.Value, st.MomentumAction.Signal, st.MomentumAction.Multiplier))
	} else {
		b.WriteString(fmt.Sprintf("Momentum: warming up (%d/%d samples)\n", st.Momentum.Samples, st.Momentum.Period+1))
	}
	loop := "stopped"
	if st.LoopRunning {
		loop = "running"
	}
	b.WriteString(fmt.Sprintf("Loop: %s\n\n", loop))

	b.WriteString("<b>Pending</b>\n")
	for _, bk := range model.Buckets {
		b.WriteString(fmt.Sprintf("  %s: %s\n", bucketLabel[bk], f.Native(st.Accumulated[bk])))
		if s, ok := st.Stranded[bk]; ok && !s.Empty() {
			b.WriteString(fmt.Sprintf("    stranded: %d asset, %d shares\n", s.Asset, s.Shares))
		}
	}

	s := st.Stats
	b.WriteString("\n<b>Lifetime</b>\n")
	b.WriteString(fmt.Sprintf("  Claimed: %s (%d claims)\n", f.Native(s.TotalClaimed), s.ClaimCount))
	b.WriteString(fmt.Sprintf("  Distributed: %s (%d runs)\n", f.Native(s.TotalDistributed), s.DistributionCount))
	b.WriteString(fmt.Sprintf("  Burned: %s\n", f.Native(s.TotalBurned)))
	b.WriteString(fmt.Sprintf("  Buyback: %s\n", f.Native(s.TotalBuyback)))
	b.WriteString(fmt.Sprintf("  Holder rewards: %s\n", f.Native(s.TotalHolderReward)))
	b.WriteString(fmt.Sprintf("  Pool shares burned: %d\n", s.PoolSharesBurned))
	if !s.LastDistributedAt.IsZero() {
		b.WriteString(fmt.Sprintf("  Last distribution: %s\n", s.LastDistributedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}
