// Package profile manages user accounts, subscription tiers, XP totals, and
// the daily hide/refresh quotas.
package profile

// Tier is a subscription level.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierAdmin   Tier = "admin"
)

// unlimited marks a quota without a daily cap.
const unlimited = -1

// quotaLimits returns the daily hide and refresh caps for a tier.
func quotaLimits(tier Tier) (hides int, refreshes int) {
	switch tier {
	case TierPremium, TierAdmin:
		return unlimited, unlimited
	default:
		return 1, 3
	}
}

// QuotaStatus reports how many actions remain today. Nil means unlimited.
type QuotaStatus struct {
	HideRemaining    *int `json:"hide_remaining"`
	RefreshRemaining *int `json:"refresh_remaining"`
}

// Profile is the user-facing account summary.
type Profile struct {
	UserID       int64       `json:"user_id"`
	DisplayName  string      `json:"display_name"`
	Subscription Tier        `json:"subscription"`
	TotalXP      int         `json:"total_xp"`
	Quotas       QuotaStatus `json:"quotas"`
}
