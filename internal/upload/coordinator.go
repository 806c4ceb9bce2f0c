// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pdiddy/mdpress/pkg/types"
)

const (
	// DefaultConcurrency is the upload worker count when the config gives none.
	DefaultConcurrency = 3

	// DefaultMaxRetries is the per-image retry budget when the config gives none.
	DefaultMaxRetries = 3
)

// backoffBase controls the base duration for exponential retry backoff.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Result is the outcome of one image's upload attempt. Exactly one Result
// exists per input image, keyed by its extraction ordinal, whatever order
// completions arrive in (R3.2).
type Result struct {
	// Ordinal is the extraction ordinal of the image.
	Ordinal int

	// Page is the source page hint carried from extraction, 0 when unknown.
	Page int

	// Name is the image name used in warnings.
	Name string

	// URL is the public image URL on success, empty on failure.
	URL string

	// Cached marks a URL served from the upload cache without a network call.
	Cached bool

	// Err is the failure reason, nil on success. Typed *Error failures
	// carry the kind; anything else is reported verbatim.
	Err error
}

// Progress receives each completed upload with a running count so callers
// can render "[k/N]" style output (R3.4). Calls arrive from a single
// collector goroutine in completion order.
type Progress func(completed, total int, res Result)

// Coordinator fans a document's images out to the host across a bounded
// worker pool. Workers draw pending images from a shared queue in ordinal
// order; completion order is unconstrained. One upload failing never
// aborts the set (R3.1-R3.3).
type Coordinator struct {
	Uploader Uploader

	// Cache short-circuits uploads of payloads already hosted. Nil disables it.
	Cache *Cache

	Config   types.UploadConfig
	Progress Progress
}

// UploadAll uploads every image and returns one Result per input, in
// input order. The slice is always complete: failed uploads occupy their
// slot with Err set.
func (c *Coordinator) UploadAll(ctx context.Context, images []types.NormalizedImage) []Result {
	results := make([]Result, len(images))
	if len(images) == 0 {
		return results
	}

	workers := c.Config.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(images) {
		workers = len(images)
	}

	type slot struct {
		index int
		res   Result
	}

	jobs := make(chan int)
	done := make(chan slot, len(images))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				done <- slot{index: idx, res: c.uploadOne(ctx, images[idx])}
			}
		}()
	}

	go func() {
		for i := range images {
			jobs <- i
		}
		close(jobs)
	}()

	for completed := 1; completed <= len(images); completed++ {
		s := <-done
		results[s.index] = s.res
		if c.Progress != nil {
			c.Progress(completed, len(images), s.res)
		}
	}
	wg.Wait()

	return results
}

// uploadOne resolves a single image: cache lookup, then upload with
// retries, then cache store. Cache errors degrade to plain uploads.
func (c *Coordinator) uploadOne(ctx context.Context, img types.NormalizedImage) Result {
	res := Result{Ordinal: img.Ordinal, Page: img.Page, Name: img.Name}

	var digest string
	if c.Cache != nil {
		digest = Digest(img.Data)
		if url, ok, err := c.Cache.Lookup(digest); err == nil && ok {
			res.URL = url
			res.Cached = true
			return res
		}
	}

	url, err := c.uploadWithRetry(ctx, img)
	if err != nil {
		res.Err = err
		return res
	}
	res.URL = url

	if c.Cache != nil {
		// Store failures lose only the cache entry, not the upload.
		c.Cache.Store(digest, url, len(img.Data))
	}
	return res
}

// uploadWithRetry retries transient failures with exponential backoff
// (R5.3). Permanent failures return after the first attempt; the client
// itself never retries.
func (c *Coordinator) uploadWithRetry(ctx context.Context, img types.NormalizedImage) (string, error) {
	maxRetries := c.Config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		attempts++
		url, err := c.Uploader.Upload(ctx, img)
		if err == nil {
			return url, nil
		}
		lastErr = err

		var ue *Error
		if !errors.As(err, &ue) || !ue.Transient() {
			break
		}
	}

	if attempts > 1 {
		return "", fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return "", lastErr
}
