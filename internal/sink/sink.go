// Package sink implements the downstream log-ingestion adapter: batches of
// admitted alerts, uploaded to object storage as newline-delimited JSON.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vigilrun/vigil/internal/alert"
)

// Sink ingests a run's alert batch. An empty batch is a no-op.
type Sink interface {
	Upload(ctx context.Context, ruleID, streamName string, rows []alert.Alert) error
}

// objectPutter is the subset of objectstore.Client the sink needs, declared
// locally so it can be exercised against a fake in tests without a real
// object store.
type objectPutter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// ObjectStoreSink uploads each batch as one NDJSON object, keyed by stream
// name, rule id and upload time so repeated runs never collide.
type ObjectStoreSink struct {
	client objectPutter
	prefix string
}

func NewObjectStoreSink(client objectPutter, prefix string) *ObjectStoreSink {
	return &ObjectStoreSink{client: client, prefix: prefix}
}

func (s *ObjectStoreSink) Upload(ctx context.Context, ruleID, streamName string, rows []alert.Alert) error {
	if len(rows) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode alert row: %w", err)
		}
	}

	key := fmt.Sprintf("%s/%s/%s/%d.ndjson", s.prefix, streamName, ruleID, time.Now().UnixNano())
	if err := s.client.Put(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return fmt.Errorf("upload alert batch: %w", err)
	}
	return nil
}
