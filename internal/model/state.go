package model

import "time"

// Statistics holds lifetime counters. They never decrease.
type Statistics struct {
	TotalClaimed      int64     `json:"total_claimed"`
	TotalDistributed  int64     `json:"total_distributed"`
	TotalBurned       int64     `json:"total_burned"`
	TokensBurned      int64     `json:"tokens_burned"`
	TotalBuyback      int64     `json:"total_buyback"`
	TotalHolderReward int64     `json:"total_holder_reward"`
	PoolSharesBurned  int64     `json:"pool_shares_burned"`
	ClaimCount        int64     `json:"claim_count"`
	DistributionCount int64     `json:"distribution_count"`
	LastClaimAt       time.Time `json:"last_claim_at"`
	LastDistributedAt time.Time `json:"last_distributed_at"`
}

// Stranded holds intermediate amounts left behind when the second step of a
// two-step action failed. Asset is in tracked-asset units, Shares in pool-share units.
type Stranded struct {
	Asset   int64  `json:"asset,omitempty"`
	Shares  int64  `json:"shares,omitempty"`
	ShareID string `json:"share_id,omitempty"`
}

// Empty reports whether nothing is stranded.
func (s Stranded) Empty() bool { return s.Asset == 0 && s.Shares == 0 }

// EngineState is the persisted part of an engine.
type EngineState struct {
	AssetID     string              `json:"asset_id"`
	Accumulated map[Bucket]int64    `json:"accumulated"`
	Stranded    map[Bucket]Stranded `json:"stranded,omitempty"`
	Stats       Statistics          `json:"stats"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Status is the read-only snapshot returned by Engine.Status.
type Status struct {
	AssetID        string              `json:"asset_id"`
	Momentum       MomentumReading     `json:"momentum"`
	MomentumAction MomentumAction      `json:"momentum_action"`
	Accumulated    map[Bucket]int64    `json:"accumulated"`
	Stranded       map[Bucket]Stranded `json:"stranded,omitempty"`
	Stats          Statistics          `json:"stats"`
	LoopRunning    bool                `json:"loop_running"`
}
