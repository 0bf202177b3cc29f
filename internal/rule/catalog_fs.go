package rule

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CatalogDir is a Catalog backed by a directory on the local filesystem.
// Every regular file under Root with a recognized document extension is a
// rule document; the path reported to the loader is relative to Root.
type CatalogDir struct {
	Root string
}

func NewCatalogDir(root string) *CatalogDir {
	return &CatalogDir{Root: root}
}

func (c *CatalogDir) List(ctx context.Context) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(c.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !hasDocExtension(p) {
			return nil
		}

		rel, err := filepath.Rel(c.Root, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		docs = append(docs, Document{Path: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk rule catalog %s: %w", c.Root, err)
	}

	return docs, nil
}

func hasDocExtension(p string) bool {
	ext := filepath.Ext(p)
	for _, want := range docExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
