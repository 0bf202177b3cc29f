package upstream

import (
	"fmt"
	"strings"

	"github.com/vigilrun/vigil/internal/enum"
)

// ClassifiedError carries the per-tenant status an auth-class or
// subscription-bootstrap failure should be recorded as (spec §7).
type ClassifiedError struct {
	Status  enum.TenantStatus
	Message string
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func newClassifiedError(status enum.TenantStatus, format string, args ...interface{}) *ClassifiedError {
	return &ClassifiedError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// classifyHTTPError maps an upstream HTTP failure response to the error
// taxonomy in spec §7. It is deliberately conservative: anything it cannot
// positively identify becomes the generic "error" class.
func classifyHTTPError(statusCode int, body string) *ClassifiedError {
	lower := strings.ToLower(body)

	switch {
	case statusCode == 403:
		return newClassifiedError(enum.TenantStatusPermissionDenied, "upstream denied the request: %s", truncate(body, 300))

	case statusCode == 400 && (strings.Contains(lower, "consent") || strings.Contains(lower, "aadsts65001")):
		return newClassifiedError(enum.TenantStatusAppNotConsented, "application is not consented for this tenant: %s", truncate(body, 300))

	case statusCode == 401 && strings.Contains(lower, "consent"):
		return newClassifiedError(enum.TenantStatusAppNotConsented, "application is not consented for this tenant: %s", truncate(body, 300))

	case statusCode == 404 && (strings.Contains(lower, "tenant") || strings.Contains(lower, "aadsts90002")):
		return newClassifiedError(enum.TenantStatusTenantNotFound, "upstream tenant does not exist: %s", truncate(body, 300))

	default:
		return newClassifiedError(enum.TenantStatusError, "upstream request failed (%d): %s", statusCode, truncate(body, 300))
	}
}

// classifyAuditBootstrapError maps a failure from the audit subscription
// bootstrap step. A missing-tenant response there means audit logging
// itself is unavailable for the tenant, distinct from the tenant not
// existing at all.
func classifyAuditBootstrapError(statusCode int, body string) *ClassifiedError {
	lower := strings.ToLower(body)
	if statusCode == 404 && strings.Contains(lower, "tenant") {
		return newClassifiedError(enum.TenantStatusAuditLogDisabled, "audit log subscription unavailable for tenant: %s", truncate(body, 300))
	}
	return classifyHTTPError(statusCode, body)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
