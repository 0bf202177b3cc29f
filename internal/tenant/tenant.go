// Package tenant holds the monitored-tenant directory: the watermark and
// status the orchestrator reads and mutates once per run.
package tenant

import (
	"context"
	"time"

	"github.com/vigilrun/vigil/internal/enum"
)

// ReservedID is a placeholder tenant id used by the configuration store for
// non-tenant rows sharing the same table; it is always filtered out of
// Store.List.
const ReservedID = "00000000-0000-0000-0000-000000000000"

// Tenant is a monitored customer directory.
type Tenant struct {
	ID       string
	Name     string
	LastPoll *time.Time
	Status   enum.TenantStatus
	Message  string
}

// Store is the tenant directory: listing and the single per-run status
// mutation the orchestrator performs on each tenant's terminal outcome.
type Store interface {
	List(ctx context.Context) ([]Tenant, error)

	// UpdateStatus sets status, message and (when non-nil) lastPoll for a
	// tenant. lastPoll is left untouched when nil, preserving the watermark
	// on a failed run.
	UpdateStatus(ctx context.Context, tenantID string, status enum.TenantStatus, message string, lastPoll *time.Time) error
}
