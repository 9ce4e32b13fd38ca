package domain

import (
	"context"
	"strconv"
)

// UserRecord is a tenant user as returned by the backend. LastLogin is kept
// raw because the backend does not guarantee a parseable value.
type UserRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LastLogin string `json:"last_login,omitempty"`
}

type ModuleStatus string

const (
	ModuleStatusActive   ModuleStatus = "aktif"
	ModuleStatusInactive ModuleStatus = "nonaktif"
)

// ModuleRecord is one activation record of a module for a tenant.
type ModuleRecord struct {
	ID        int64        `json:"id"`
	ModuleID  *int64       `json:"module_id,omitempty"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Status    ModuleStatus `json:"status"`
	StartDate string       `json:"start_date,omitempty"`
	EndDate   string       `json:"end_date,omitempty"`
}

// Key returns the module identity: module_id when present, otherwise the
// record's own id. It is empty when the record carries neither.
func (m ModuleRecord) Key() string {
	if m.ModuleID != nil {
		return strconv.FormatInt(*m.ModuleID, 10)
	}
	if m.ID != 0 {
		return strconv.FormatInt(m.ID, 10)
	}
	return ""
}

// UserSource lists the users of one tenant.
type UserSource interface {
	ListUsers(ctx context.Context, tenantID int64) ([]UserRecord, error)
}

// ModuleSource lists the module activation records of one tenant.
type ModuleSource interface {
	ListTenantModules(ctx context.Context, tenantID int64) ([]ModuleRecord, error)
}
