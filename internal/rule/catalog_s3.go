package rule

import (
	"context"
	"fmt"
	"strings"

	"github.com/vigilrun/vigil/internal/objectstore"
)

// CatalogS3 is a Catalog backed by an object storage bucket. Every key under
// Prefix with a recognized document extension is a rule document; the path
// reported to the loader has Prefix stripped.
type CatalogS3 struct {
	Client *objectstore.Client
	Prefix string
}

func NewCatalogS3(client *objectstore.Client, prefix string) *CatalogS3 {
	return &CatalogS3{Client: client, Prefix: prefix}
}

func (c *CatalogS3) List(ctx context.Context) ([]Document, error) {
	keys, err := c.Client.ListKeys(ctx, c.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list rule catalog bucket: %w", err)
	}

	var docs []Document
	for _, key := range keys {
		if !hasDocExtension(key) {
			continue
		}

		data, err := c.Client.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("fetch rule document %s: %w", key, err)
		}

		docs = append(docs, Document{
			Path: strings.TrimPrefix(strings.TrimPrefix(key, c.Prefix), "/"),
			Data: data,
		})
	}

	return docs, nil
}
