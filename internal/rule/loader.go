package rule

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document is a single rule document as discovered in the catalog: its
// catalog-relative path (forward-slash separated, extension included) and
// raw bytes.
type Document struct {
	Path string
	Data []byte
}

// Catalog discovers rule documents. The filesystem-backed and
// object-storage-backed implementations (CatalogDir, CatalogS3) both satisfy
// this interface; the evaluator and loader never know which one is in use.
// The catalog is treated as stable within a single run and may change
// between runs (spec §4.4/§9) - implementations do not need to cache.
type Catalog interface {
	List(ctx context.Context) ([]Document, error)
}

var docExtensions = []string{".yaml", ".yml", ".json"}

// deriveID turns a catalog-relative document path into a stable rule ID: the
// path with OS separators normalized to '/' and any document extension
// stripped.
func deriveID(docPath string) string {
	id := strings.ReplaceAll(docPath, "\\", "/")
	for _, ext := range docExtensions {
		if strings.HasSuffix(id, ext) {
			return strings.TrimSuffix(id, ext)
		}
	}
	return id
}

// Load discovers every document in the catalog, parses and validates each
// one, and returns the rules that pass validation. A malformed document is
// logged and skipped; it never fails the load of the others or of the run
// (spec §4.4).
func Load(ctx context.Context, catalog Catalog, log *zap.Logger) ([]*Rule, error) {
	docs, err := catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rule catalog: %w", err)
	}

	rules := make([]*Rule, 0, len(docs))
	for _, doc := range docs {
		r, err := parseAndValidate(doc)
		if err != nil {
			log.Warn("skipping invalid rule document",
				zap.String("path", doc.Path),
				zap.Error(err))
			continue
		}
		rules = append(rules, r)
	}

	return rules, nil
}

func parseAndValidate(doc Document) (*Rule, error) {
	var r Rule
	if err := yaml.Unmarshal(doc.Data, &r); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	r.ID = deriveID(path.Clean(doc.Path))

	if err := validate(&r); err != nil {
		return nil, err
	}

	// Enabled is a plain bool, so its presence is checked on the raw keys.
	var fields map[string]interface{}
	if err := yaml.Unmarshal(doc.Data, &fields); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if _, ok := fields["enabled"]; !ok {
		return nil, fmt.Errorf("missing enabled")
	}
	return &r, nil
}

// validate enforces the load-time invariant from spec §3: name, description,
// severity, enabled, source and conditions must be present and shaped
// correctly for the rule to be accepted.
func validate(r *Rule) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("missing description")
	}
	switch r.Severity {
	case "", "Low", "Medium", "High", "Critical":
		if r.Severity == "" {
			return fmt.Errorf("missing severity")
		}
	default:
		return fmt.Errorf("invalid severity %q", r.Severity)
	}
	switch r.Source {
	case "SignIn", "SecurityAlert", "AuditLog":
	default:
		return fmt.Errorf("invalid or missing source %q", r.Source)
	}
	switch r.Conditions.Match {
	case "all", "any":
	default:
		return fmt.Errorf("invalid or missing conditions.match %q", r.Conditions.Match)
	}
	for i, c := range r.Conditions.Rules {
		if strings.TrimSpace(c.Field) == "" {
			return fmt.Errorf("condition %d missing field", i)
		}
	}
	return nil
}
