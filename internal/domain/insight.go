package domain

import "time"

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// LeaderboardEntry is one tenant's login activity in the current and previous
// windows.
type LeaderboardEntry struct {
	TenantID       int64          `json:"tenant_id"`
	TenantName     string         `json:"tenant_name"`
	TenantType     TenantType     `json:"tenant_type,omitempty"`
	CurrentCount   int            `json:"current_count"`
	PreviousCount  int            `json:"previous_count"`
	TrendPercent   float64        `json:"trend_percent"`
	TrendDirection TrendDirection `json:"trend_direction"`
	LastLoginAt    *time.Time     `json:"last_login_at"`
}

type LoginLeaderboard struct {
	Entries      []LeaderboardEntry `json:"entries"`
	TotalTenants int                `json:"total_tenants"`
	TotalLogins  int                `json:"total_logins"`
}

// ModuleAdoptionEntry counts the tenants that had a module active or
// deactivated within the current window.
type ModuleAdoptionEntry struct {
	ModuleID          string  `json:"module_id"`
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	ActiveTenants     int     `json:"active_tenants"`
	InactiveTenants   int     `json:"inactive_tenants"`
	AdoptionRate      float64 `json:"adoption_rate"`
	ActiveTenantIDs   []int64 `json:"active_tenant_ids"`
	InactiveTenantIDs []int64 `json:"inactive_tenant_ids"`
}

type ModuleAdoption struct {
	Entries      []ModuleAdoptionEntry `json:"entries"`
	TotalTenants int                   `json:"total_tenants"`
}
