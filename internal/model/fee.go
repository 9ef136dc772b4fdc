package model

// Bucket names one of the four allocation destinations.
type Bucket string

const (
	BucketBurn         Bucket = "burn"
	BucketBuyback      Bucket = "buyback"
	BucketHolderReward Bucket = "holder_reward"
	BucketLPPool       Bucket = "lp_pool"
)

// Buckets lists every bucket in split order. The last one absorbs rounding slack.
var Buckets = []Bucket{BucketBurn, BucketBuyback, BucketHolderReward, BucketLPPool}

// FeeSplit partitions Total native units across the four buckets.
// Burn + Buyback + HolderReward + LPPool == Total always holds.
type FeeSplit struct {
	Burn         int64 `json:"burn"`
	Buyback      int64 `json:"buyback"`
	HolderReward int64 `json:"holder_reward"`
	LPPool       int64 `json:"lp_pool"`
	Total        int64 `json:"total"`
}

// Share returns the part assigned to b.
func (s FeeSplit) Share(b Bucket) int64 {
	switch b {
	case BucketBurn:
		return s.Burn
	case BucketBuyback:
		return s.Buyback
	case BucketHolderReward:
		return s.HolderReward
	case BucketLPPool:
		return s.LPPool
	}
	return 0
}

// Holder is one {address, balance} entry of a holder snapshot.
type Holder struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}
