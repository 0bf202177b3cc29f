package orchestrator

import (
	"context"
	"time"

	"github.com/vigilrun/vigil/internal/enum"
	"github.com/vigilrun/vigil/internal/event"
	"github.com/vigilrun/vigil/internal/upstream"
)

// sourceResult is one source's fetch outcome, joined back on a channel.
type sourceResult struct {
	source enum.SourceType
	events []event.Tree
	err    error
}

// fetchAll issues the three upstream fetches concurrently and waits for
// all of them, regardless of whether any individually fails, per spec
// §4.7/§5 ("within one tenant, the three upstream fetches execute
// concurrently and the run waits for all of them").
func fetchAll(ctx context.Context, clients Clients, tenantID string, since, now time.Time) map[enum.SourceType]sourceResult {
	sources := []struct {
		typ    enum.SourceType
		client upstream.SourceClient
	}{
		{enum.SourceSignIn, clients.SignIn},
		{enum.SourceSecurityAlert, clients.SecurityAlert},
		{enum.SourceAuditLog, clients.AuditLog},
	}

	results := make(chan sourceResult, len(sources))
	for _, s := range sources {
		go func(typ enum.SourceType, client upstream.SourceClient) {
			events, err := client.FetchSince(ctx, tenantID, since, now)
			results <- sourceResult{source: typ, events: events, err: err}
		}(s.typ, s.client)
	}

	out := make(map[enum.SourceType]sourceResult, len(sources))
	for range sources {
		r := <-results
		out[r.source] = r
	}
	return out
}
