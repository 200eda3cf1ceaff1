package domain

import "time"

// Reward issuance rates and the global supply ceiling, in credits.
const (
	RewardPerPacket      int64 = 1
	RewardPerUptimeBlock int64 = 10
	RewardPerDelivery    int64 = 5

	UptimeBlockMinutes int64 = 60

	MaxRewardSupply int64 = 1_000_000_000
)

// NodeAccount accumulates reported mesh-network contribution for one node.
type NodeAccount struct {
	Address           string    `json:"address"`
	PacketsRelayed    int64     `json:"packets_relayed"`
	UptimeMinutes     int64     `json:"uptime_minutes"`
	MessagesDelivered int64     `json:"messages_delivered"`
	RewardBalance     int64     `json:"reward_balance"`
	TotalEarned       int64     `json:"total_earned"`
	LastActivity      time.Time `json:"last_activity"`
}

// ActiveSince reports whether the node showed activity within the window
// ending at reference.
func (n *NodeAccount) ActiveSince(reference time.Time, window time.Duration) bool {
	if n == nil || n.LastActivity.IsZero() {
		return false
	}
	return n.LastActivity.After(reference.Add(-window))
}
