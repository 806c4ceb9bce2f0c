// Package fetch downloads remote PDFs into the workspace raw directory.
// Implements: prd007-fetch (R1-R4);
//
//	docs/ARCHITECTURE § Remote Fetch.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/mdpress/internal/httputil"
	"github.com/pdiddy/mdpress/pkg/types"
)

const rawDir = "raw"

// IsRemote reports whether the argument is an http(s) URL rather than a
// local path.
func IsRemote(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9._-]+`)

// Slug derives a filesystem-safe document ID from a URL. It uses the last
// path segment without its .pdf extension; URLs with no usable segment
// fall back to a short hash of the full URL.
func Slug(rawURL string) string {
	var base string
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
	}
	base = strings.ToLower(base)
	base = strings.TrimSuffix(base, ".pdf")
	slug := slugCleaner.ReplaceAllString(base, "-")
	slug = strings.Trim(slug, "-.")
	if slug == "" {
		sum := sha256.Sum256([]byte(rawURL))
		return "url-" + hex.EncodeToString(sum[:4])
	}
	return slug
}

// FetchDocument downloads a remote PDF into <docsDir>/raw and returns a
// Document record for it. If the target file already exists the download
// is skipped (R2). The skipped return value indicates whether the
// download was skipped.
func FetchDocument(ctx context.Context, client *http.Client, rawURL string, cfg types.FetchConfig, w io.Writer) (doc *types.Document, skipped bool, err error) {
	slug := Slug(rawURL)
	pdfPath := filepath.Join(cfg.DocsDir, rawDir, slug+".pdf")

	// Skip if the PDF already exists (R2.2).
	if _, err := os.Stat(pdfPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		return &types.Document{ID: slug, SourceURL: rawURL, PDFPath: pdfPath}, true, nil
	}

	if err := os.MkdirAll(filepath.Join(cfg.DocsDir, rawDir), 0o755); err != nil {
		return nil, false, fmt.Errorf("creating directory: %w", err)
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", slug, rawURL)

	if err := downloadFile(ctx, client, rawURL, pdfPath, cfg); err != nil {
		return nil, false, fmt.Errorf("downloading %s: %w", slug, err)
	}

	return &types.Document{ID: slug, SourceURL: rawURL, PDFPath: pdfPath}, false, nil
}

// FetchBatch downloads each URL in sequence, applying the configured
// delay between consecutive downloads (R3). It continues past individual
// failures and returns the documents that materialized plus the number
// of failed downloads.
func FetchBatch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, w io.Writer) ([]*types.Document, int) {
	var docs []*types.Document
	failed := 0
	for i, u := range urls {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		doc, _, err := FetchDocument(ctx, client, u, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", u, err)
			failed++
			continue
		}
		docs = append(docs, doc)
	}
	return docs, failed
}

// downloadFile fetches url to destPath using a temporary file so a
// partial download never lands at the final path (R2.3). Requests go
// through httputil.DoWithRetry so rate limiting and brief host outages
// are absorbed (R4).
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.FetchConfig) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
