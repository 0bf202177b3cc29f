package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/httpapi"
	"github.com/vigilrun/vigil/internal/runhistory"
	"github.com/vigilrun/vigil/internal/tenant"
)

type fakeTenantStore struct {
	tenants []tenant.Tenant
}

func (s *fakeTenantStore) List(ctx context.Context) ([]tenant.Tenant, error) { return s.tenants, nil }
func (s *fakeTenantStore) UpdateStatus(ctx context.Context, tenantID string, status enum.TenantStatus, message string, lastPoll *time.Time) error {
	return nil
}

type fakeRunHistory struct {
	summaries []runhistory.RunSummary
}

func (s *fakeRunHistory) Append(ctx context.Context, summary runhistory.RunSummary) error {
	s.summaries = append(s.summaries, summary)
	return nil
}
func (s *fakeRunHistory) List(ctx context.Context, limit int) ([]runhistory.RunSummary, error) {
	return s.summaries, nil
}
func (s *fakeRunHistory) Sweep(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	return 0, nil
}

type fakeTrigger struct {
	ran   bool
	err   error
	calls int
}

func (t *fakeTrigger) TriggerNow(ctx context.Context) (bool, error) {
	t.calls++
	return t.ran, t.err
}

func TestHandleHealthzReturnsOK(t *testing.T) {
	r := httpapi.NewRouter(httpapi.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHandleStatusReturnsTenants(t *testing.T) {
	deps := httpapi.Deps{
		Tenants: &fakeTenantStore{tenants: []tenant.Tenant{{ID: "tenant-a", Name: "Contoso"}}},
	}
	r := httpapi.NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contoso")
}

func TestHandleRunsReturnsHistory(t *testing.T) {
	deps := httpapi.Deps{
		RunHistory: &fakeRunHistory{summaries: []runhistory.RunSummary{{Status: runhistory.StatusSuccess}}},
	}
	r := httpapi.NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "success")
}

func TestHandleTriggerInvokesScheduler(t *testing.T) {
	trigger := &fakeTrigger{ran: true}
	deps := httpapi.Deps{Trigger: trigger}
	r := httpapi.NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/runs/trigger", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, trigger.calls)
}

func TestHandleTriggerReturnsConflictWhenLockIsHeld(t *testing.T) {
	trigger := &fakeTrigger{ran: false}
	deps := httpapi.Deps{Trigger: trigger}
	r := httpapi.NewRouter(deps)

	req := httptest.NewRequest(http.MethodPost, "/runs/trigger", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleTriggerIsRateLimited(t *testing.T) {
	trigger := &fakeTrigger{ran: true}
	deps := httpapi.Deps{Trigger: trigger}
	r := httpapi.NewRouter(deps)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/runs/trigger", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}
