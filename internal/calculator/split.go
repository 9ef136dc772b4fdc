package calculator

import (
	"fmt"

	"FeeAllocator/internal/model"
)

// Percentages holds the whole-number split per bucket. They must sum to 100.
type Percentages struct {
	Burn         int64 `yaml:"burn" json:"burn"`
	Buyback      int64 `yaml:"buyback" json:"buyback"`
	HolderReward int64 `yaml:"holder_reward" json:"holder_reward"`
	LPPool       int64 `yaml:"lp_pool" json:"lp_pool"`
}

// DefaultPercentages splits evenly.
var DefaultPercentages = Percentages{Burn: 25, Buyback: 25, HolderReward: 25, LPPool: 25}

// Validate checks that every part is non-negative and the parts sum to 100.
func (p Percentages) Validate() error {
	for _, v := range []int64{p.Burn, p.Buyback, p.HolderReward, p.LPPool} {
		if v < 0 {
			return fmt.Errorf("split percentage %d is negative", v)
		}
	}
	if sum := p.Burn + p.Buyback + p.HolderReward + p.LPPool; sum != 100 {
		return fmt.Errorf("split percentages sum to %d, want 100", sum)
	}
	return nil
}

// Split partitions total across the buckets. The first three parts are floored;
// the LP pool part takes the remainder so the parts always sum to total.
// total must be non-negative.
func Split(total int64, p Percentages) model.FeeSplit {
	if total <= 0 {
		return model.FeeSplit{}
	}
	burn := mulDiv(total, p.Burn)
	buyback := mulDiv(total, p.Buyback)
	reward := mulDiv(total, p.HolderReward)
	return model.FeeSplit{
		Burn:         burn,
		Buyback:      buyback,
		HolderReward: reward,
		LPPool:       total - burn - buyback - reward,
		Total:        total,
	}
}

// mulDiv computes floor(total*pct/100) without overflowing for large totals.
func mulDiv(total, pct int64) int64 {
	return (total/100)*pct + (total%100)*pct/100
}
