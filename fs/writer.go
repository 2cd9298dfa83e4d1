package fs

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/prodex"
)

// URLToPath converts a product URL to a relative result file path.
// Example: https://www.shop.example/products/blue-mug → shop.example/products/blue-mug.json
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	domain := prodex.DomainOf(rawURL)
	if domain == "" {
		return "", prodex.Errorf(prodex.EINVALID, "URL has no host: %q", rawURL)
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		path = "index"
	}
	path = strings.TrimSuffix(path, ".html")

	return filepath.Join(domain, filepath.FromSlash(path)+".json"), nil
}

// ResultWriter writes extraction results as JSON files under a directory.
type ResultWriter struct {
	baseDir string
}

// NewResultWriter creates a ResultWriter that writes to baseDir.
func NewResultWriter(baseDir string) *ResultWriter {
	return &ResultWriter{baseDir: baseDir}
}

// WriteResult writes r to its URL-derived path and returns that path.
func (w *ResultWriter) WriteResult(ctx context.Context, r *prodex.ExtractionResult) (string, error) {
	relPath, err := URLToPath(r.URL)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(w.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(fullPath, append(data, '\n')); err != nil {
		return "", err
	}
	return fullPath, nil
}
