// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/mdpress/pkg/types"
)

func init() {
	// Use a tiny backoff base so retry tests finish quickly.
	backoffBase = time.Millisecond
}

// fakeUploader scripts per-ordinal outcomes and records call counts and
// the maximum number of concurrent uploads observed.
type fakeUploader struct {
	failWith  map[int]error         // ordinal → permanent failure
	failFirst map[int]int           // ordinal → fail this many attempts, then succeed
	delays    map[int]time.Duration // ordinal → artificial latency

	mu          sync.Mutex
	calls       map[int]int
	inFlight    int
	maxInFlight int
}

func (f *fakeUploader) Upload(_ context.Context, img types.NormalizedImage) (string, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[int]int)
	}
	f.calls[img.Ordinal]++
	attempt := f.calls[img.Ordinal]
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if d := f.delays[img.Ordinal]; d > 0 {
		time.Sleep(d)
	}
	if err := f.failWith[img.Ordinal]; err != nil {
		return "", err
	}
	if attempt <= f.failFirst[img.Ordinal] {
		return "", &Error{Kind: KindTimeout, Message: "simulated timeout"}
	}
	return fmt.Sprintf("https://img.example.com/%d.png", img.Ordinal), nil
}

func (f *fakeUploader) callCount(ordinal int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ordinal]
}

// makeImages returns n normalized images with ordinals 0..n-1.
func makeImages(n int) []types.NormalizedImage {
	images := make([]types.NormalizedImage, n)
	for i := range images {
		images[i] = types.NormalizedImage{
			Ordinal: i,
			Data:    []byte(fmt.Sprintf("payload-%d", i)),
			Page:    i + 1,
		}
	}
	return images
}

func TestUploadAllCompleteResults(t *testing.T) {
	fake := &fakeUploader{
		failWith: map[int]error{
			1: &Error{Kind: KindEmptyURL, Message: "image host returned an empty URL"},
			3: &Error{Kind: KindBadResponse, Message: "parsing image host response: boom"},
		},
	}
	coord := &Coordinator{Uploader: fake, Config: types.UploadConfig{Concurrency: 2}}

	results := coord.UploadAll(context.Background(), makeImages(5))

	if len(results) != 5 {
		t.Fatalf("len(results) = %d, want 5", len(results))
	}
	for i, res := range results {
		if res.Ordinal != i {
			t.Errorf("results[%d].Ordinal = %d, want %d", i, res.Ordinal, i)
		}
		switch i {
		case 1, 3:
			if res.Err == nil {
				t.Errorf("results[%d].Err = nil, want failure", i)
			}
			if res.URL != "" {
				t.Errorf("results[%d].URL = %q, want empty", i, res.URL)
			}
		default:
			if res.Err != nil {
				t.Errorf("results[%d].Err = %v, want nil", i, res.Err)
			}
			if want := fmt.Sprintf("https://img.example.com/%d.png", i); res.URL != want {
				t.Errorf("results[%d].URL = %q, want %q", i, res.URL, want)
			}
		}
	}
}

func TestUploadAllCompletionOrderInvariant(t *testing.T) {
	// Earlier ordinals finish last; the result slice must still line up
	// with input order.
	fake := &fakeUploader{
		delays: map[int]time.Duration{
			0: 40 * time.Millisecond,
			1: 30 * time.Millisecond,
			2: 20 * time.Millisecond,
			3: 0,
		},
	}
	coord := &Coordinator{Uploader: fake, Config: types.UploadConfig{Concurrency: 4}}

	results := coord.UploadAll(context.Background(), makeImages(4))

	for i, res := range results {
		if res.Ordinal != i {
			t.Errorf("results[%d].Ordinal = %d, want %d", i, res.Ordinal, i)
		}
		if want := fmt.Sprintf("https://img.example.com/%d.png", i); res.URL != want {
			t.Errorf("results[%d].URL = %q, want %q", i, res.URL, want)
		}
	}
}

func TestUploadAllProgress(t *testing.T) {
	var mu sync.Mutex
	var completions []int
	var totals []int

	coord := &Coordinator{
		Uploader: &fakeUploader{},
		Config:   types.UploadConfig{Concurrency: 3},
		Progress: func(completed, total int, _ Result) {
			mu.Lock()
			completions = append(completions, completed)
			totals = append(totals, total)
			mu.Unlock()
		},
	}

	coord.UploadAll(context.Background(), makeImages(4))

	if len(completions) != 4 {
		t.Fatalf("progress reported %d times, want 4", len(completions))
	}
	for i, c := range completions {
		if c != i+1 {
			t.Errorf("completions[%d] = %d, want %d", i, c, i+1)
		}
		if totals[i] != 4 {
			t.Errorf("totals[%d] = %d, want 4", i, totals[i])
		}
	}
}

func TestUploadAllRespectsConcurrencyLimit(t *testing.T) {
	fake := &fakeUploader{delays: map[int]time.Duration{}}
	for i := 0; i < 8; i++ {
		fake.delays[i] = 20 * time.Millisecond
	}
	coord := &Coordinator{Uploader: fake, Config: types.UploadConfig{Concurrency: 2}}

	coord.UploadAll(context.Background(), makeImages(8))

	if fake.maxInFlight > 2 {
		t.Errorf("max concurrent uploads = %d, want <= 2", fake.maxInFlight)
	}
	if fake.maxInFlight < 1 {
		t.Errorf("max concurrent uploads = %d, want >= 1", fake.maxInFlight)
	}
}

func TestUploadAllRetriesTransientFailures(t *testing.T) {
	// Times out twice, succeeds on the third attempt within a budget of 3.
	fake := &fakeUploader{failFirst: map[int]int{0: 2}}
	coord := &Coordinator{Uploader: fake, Config: types.UploadConfig{MaxRetries: 3}}

	results := coord.UploadAll(context.Background(), makeImages(1))

	if results[0].Err != nil {
		t.Fatalf("Err = %v, want success after retries", results[0].Err)
	}
	if results[0].URL == "" {
		t.Error("URL empty after successful retry")
	}
	if got := fake.callCount(0); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestUploadAllNoRetryOnPermanentFailure(t *testing.T) {
	fake := &fakeUploader{
		failWith: map[int]error{0: &Error{Kind: KindEmptyURL, Message: "image host returned an empty URL"}},
	}
	coord := &Coordinator{Uploader: fake, Config: types.UploadConfig{MaxRetries: 3}}

	results := coord.UploadAll(context.Background(), makeImages(1))

	if got := fake.callCount(0); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	var ue *Error
	if !errors.As(results[0].Err, &ue) || ue.Kind != KindEmptyURL {
		t.Errorf("Err = %v, want empty_url failure", results[0].Err)
	}
}

func TestUploadAllExhaustsRetries(t *testing.T) {
	fake := &fakeUploader{failFirst: map[int]int{0: 10}}
	coord := &Coordinator{Uploader: fake, Config: types.UploadConfig{MaxRetries: 2}}

	results := coord.UploadAll(context.Background(), makeImages(1))

	if results[0].Err == nil {
		t.Fatal("Err = nil, want exhausted retries")
	}
	// 1 initial + 2 retries = 3 total attempts.
	if got := fake.callCount(0); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if !strings.Contains(results[0].Err.Error(), "after 3 attempts") {
		t.Errorf("Err = %q, want attempt count in message", results[0].Err)
	}
	var ue *Error
	if !errors.As(results[0].Err, &ue) || ue.Kind != KindTimeout {
		t.Errorf("Err = %v, want wrapped timeout failure", results[0].Err)
	}
}

func TestUploadAllEmptyInput(t *testing.T) {
	called := false
	coord := &Coordinator{
		Uploader: &fakeUploader{},
		Progress: func(_, _ int, _ Result) { called = true },
	}

	results := coord.UploadAll(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if called {
		t.Error("progress reported for empty input")
	}
}

func TestUploadAllUsesCache(t *testing.T) {
	cache, err := OpenCache(t.TempDir() + "/uploads.db")
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	images := makeImages(2)

	first := &fakeUploader{}
	coord := &Coordinator{Uploader: first, Cache: cache, Config: types.UploadConfig{Concurrency: 1}}
	results := coord.UploadAll(context.Background(), images)
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("first run results[%d].Err = %v", i, res.Err)
		}
		if res.Cached {
			t.Errorf("first run results[%d] unexpectedly cached", i)
		}
	}

	// Same payloads again: everything should come from the cache.
	second := &fakeUploader{}
	coord.Uploader = second
	results = coord.UploadAll(context.Background(), images)
	for i, res := range results {
		if !res.Cached {
			t.Errorf("second run results[%d] not served from cache", i)
		}
		if res.URL == "" {
			t.Errorf("second run results[%d].URL empty", i)
		}
	}
	if got := second.callCount(0) + second.callCount(1); got != 0 {
		t.Errorf("uploader called %d times on cached run, want 0", got)
	}
}
