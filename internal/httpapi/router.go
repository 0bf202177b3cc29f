// Package httpapi exposes the engine's operator-facing HTTP surface:
// health, a snapshot of tenant/run status, recent run history, and a
// rate-limited manual trigger for an out-of-band tick.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/vigilrun/vigil/internal/runhistory"
	"github.com/vigilrun/vigil/internal/tenant"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// Trigger is the subset of scheduler.Scheduler the API needs: a way to run
// one out-of-band tick through the same non-overlap lock the ticking loop
// uses, so a manual trigger can never race a scheduled tick. Declared
// locally so handlers can be tested against a fake.
type Trigger interface {
	TriggerNow(ctx context.Context) (ran bool, err error)
}

// Deps bundles the API's dependencies.
type Deps struct {
	Tenants    tenant.Store
	RunHistory runhistory.Store
	Trigger    Trigger
}

// NewRouter builds the chi router serving /healthz, /status, /runs and
// /runs/trigger.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/healthz", handleHealthz)
	r.Get("/status", handleStatus(deps))
	r.Get("/runs", handleRuns(deps))

	r.With(httprate.LimitByIP(1, time.Minute)).Post("/runs/trigger", handleTrigger(deps))

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenants, err := deps.Tenants.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, tenants)
	}
}

func handleRuns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if q := r.URL.Query().Get("limit"); q != "" {
			if parsed, err := parsePositiveInt(q); err == nil {
				limit = parsed
			}
		}

		runs, err := deps.RunHistory.List(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

// handleTrigger runs a single tick synchronously, outside the normal
// schedule, through deps.Trigger so it shares the scheduler's non-overlap
// lock with the ticking loop: a tick already in progress causes this to
// report 409 rather than run a second, concurrent tick.
func handleTrigger(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ran, err := deps.Trigger.TriggerNow(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ran {
			http.Error(w, "a tick is already in progress", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errInvalidLimit
	}
	return n, nil
}
