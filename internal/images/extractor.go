// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images recovers embedded raster images from PDF files.
// Implements: prd002-images (R1-R4);
//
//	docs/ARCHITECTURE § Image Extraction.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/mdpress/pkg/types"
)

// Extractor yields the raster images embedded in a PDF in a stable
// extraction order. A total failure here is reported by the pipeline as
// a warning and the document proceeds text-only (R1.3).
type Extractor interface {
	Extract(pdfPath string) ([]types.ExtractedImage, error)
}

// PDFCPUExtractor extracts embedded image objects into a scratch
// directory with pdfcpu and reads them back in sorted filename order.
type PDFCPUExtractor struct{}

// Extract returns every embedded image in pdfPath with ordinals assigned
// by extraction order.
func (PDFCPUExtractor) Extract(pdfPath string) ([]types.ExtractedImage, error) {
	scratch, err := os.MkdirTemp("", "mdpress-images-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(pdfPath, scratch, nil, conf); err != nil {
		return nil, fmt.Errorf("extracting images from %s: %w", pdfPath, err)
	}

	return collectExtracted(scratch)
}

// formatByExt maps the extensions pdfcpu writes to declared formats.
// Extensions outside this map (e.g. .jp2) are still collected, declared
// unknown, and left for normalization to reject per image (R2.4).
var formatByExt = map[string]types.ImageFormat{
	".png":  types.FormatPNG,
	".jpg":  types.FormatJPEG,
	".jpeg": types.FormatJPEG,
	".gif":  types.FormatGIF,
	".tif":  types.FormatTIFF,
	".tiff": types.FormatTIFF,
	".bmp":  types.FormatBMP,
	".webp": types.FormatWebP,
}

// pagePattern matches the page token pdfcpu embeds in extracted
// filenames (e.g. "report_page_3_Im0.png").
var pagePattern = regexp.MustCompile(`_page_(\d+)_`)

// collectExtracted reads extracted files back in sorted filename order
// and assigns ordinals by position. Ordering never derives from numbers
// inside the filename: the page token tracks the source page, not the
// extraction sequence, so it is carried only as a hint (R2.2).
func collectExtracted(dir string) ([]types.ExtractedImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading extraction directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var imgs []types.ExtractedImage
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading extracted image %s: %w", name, err)
		}

		format, ok := formatByExt[strings.ToLower(filepath.Ext(name))]
		if !ok {
			format = types.FormatUnknown
		}

		imgs = append(imgs, types.ExtractedImage{
			Ordinal: len(imgs),
			Data:    data,
			Format:  format,
			Page:    pageHint(name),
			Name:    name,
		})
	}
	return imgs, nil
}

// pageHint parses the one-based page number from an extracted filename,
// 0 when the name carries none.
func pageHint(name string) int {
	m := pagePattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
