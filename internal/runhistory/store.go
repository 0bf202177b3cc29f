package runhistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/vigilrun/vigil/internal/etcd"
)

const defaultPrefix = "/vigil/runhistory/"

// Store persists and retrieves RunSummary records.
type Store interface {
	Append(ctx context.Context, summary RunSummary) error
	List(ctx context.Context, limit int) ([]RunSummary, error)
	// Sweep deletes records older than retention and reports how many
	// were removed.
	Sweep(ctx context.Context, retention time.Duration, now time.Time) (int, error)
}

// EtcdStore is the etcd/v3-backed Store. Key ordering is the inverted
// timestamp scheme in key.go, so a plain ascending range scan already
// yields newest-first.
type EtcdStore struct {
	client *etcd.Client
	prefix string
}

func NewEtcdStore(client *etcd.Client) *EtcdStore {
	return &EtcdStore{client: client, prefix: defaultPrefix}
}

func (s *EtcdStore) Append(ctx context.Context, summary RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	key := rowKey(s.prefix, summary.StartTime.UnixMilli())
	if err := s.client.Put(ctx, key, string(data)); err != nil {
		return fmt.Errorf("put run summary: %w", err)
	}
	return nil
}

func (s *EtcdStore) List(ctx context.Context, limit int) ([]RunSummary, error) {
	opts := []clientv3.OpOption{}
	if limit > 0 {
		opts = append(opts, clientv3.WithLimit(int64(limit)))
	}

	resp, err := s.client.GetWithPrefix(ctx, s.prefix, opts...)
	if err != nil {
		return nil, fmt.Errorf("list run summaries: %w", err)
	}

	out := make([]RunSummary, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var summary RunSummary
		if err := json.Unmarshal(kv.Value, &summary); err != nil {
			continue
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *EtcdStore) Sweep(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	resp, err := s.client.GetWithPrefix(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("sweep run summaries: %w", err)
	}

	cutoff := now.Add(-retention)
	removed := 0
	for _, kv := range resp.Kvs {
		var summary RunSummary
		if err := json.Unmarshal(kv.Value, &summary); err != nil {
			continue
		}
		if summary.StartTime.Before(cutoff) {
			if err := s.client.Delete(ctx, string(kv.Key)); err != nil {
				return removed, fmt.Errorf("delete expired run summary %s: %w", kv.Key, err)
			}
			removed++
		}
	}
	return removed, nil
}
