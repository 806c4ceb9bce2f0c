// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/mdpress/pkg/types"
)

func TestPageHint(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"report_page_3_Im0.png", 3},
		{"report_page_12_Im1.jpg", 12},
		{"scan_page_1_Fm0.tiff", 1},
		{"no-token.png", 0},
		{"almost_page__Im0.png", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageHint(tt.name); got != tt.want {
				t.Errorf("pageHint(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestCollectExtracted(t *testing.T) {
	dir := t.TempDir()

	// Written out of order on purpose: collection sorts by filename.
	files := map[string]string{
		"doc_page_2_Im0.jpg": "jpeg-bytes",
		"doc_page_1_Im0.png": "png-bytes",
		"doc_page_3_Im0.jp2": "jp2-bytes",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	imgs, err := collectExtracted(dir)
	if err != nil {
		t.Fatalf("collectExtracted: %v", err)
	}

	want := []struct {
		name   string
		format types.ImageFormat
		page   int
		data   string
	}{
		{"doc_page_1_Im0.png", types.FormatPNG, 1, "png-bytes"},
		{"doc_page_2_Im0.jpg", types.FormatJPEG, 2, "jpeg-bytes"},
		{"doc_page_3_Im0.jp2", types.FormatUnknown, 3, "jp2-bytes"},
	}

	if len(imgs) != len(want) {
		t.Fatalf("len(imgs) = %d, want %d", len(imgs), len(want))
	}
	for i, w := range want {
		img := imgs[i]
		if img.Ordinal != i {
			t.Errorf("imgs[%d].Ordinal = %d, want %d", i, img.Ordinal, i)
		}
		if img.Name != w.name {
			t.Errorf("imgs[%d].Name = %q, want %q", i, img.Name, w.name)
		}
		if img.Format != w.format {
			t.Errorf("imgs[%d].Format = %q, want %q", i, img.Format, w.format)
		}
		if img.Page != w.page {
			t.Errorf("imgs[%d].Page = %d, want %d", i, img.Page, w.page)
		}
		if string(img.Data) != w.data {
			t.Errorf("imgs[%d].Data = %q, want %q", i, img.Data, w.data)
		}
	}
}

func TestCollectExtractedEmptyDir(t *testing.T) {
	imgs, err := collectExtracted(t.TempDir())
	if err != nil {
		t.Fatalf("collectExtracted: %v", err)
	}
	if len(imgs) != 0 {
		t.Errorf("len(imgs) = %d, want 0", len(imgs))
	}
}
