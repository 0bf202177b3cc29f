package orchestrator

import (
	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/upstream"
)

// classifyTenantError maps a tenant-run failure to the status/message pair
// recorded against that tenant, per spec §7. Anything not already
// classified by the upstream client is recorded as the generic error
// class.
func classifyTenantError(err error) (enum.TenantStatus, string) {
	if classified, ok := err.(*upstream.ClassifiedError); ok {
		return classified.Status, classified.Message
	}
	return enum.TenantStatusError, err.Error()
}
