// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates document conversion end to end: text
// extraction, image recovery, image upload, and reference interleaving.
// Implements: prd006-pipeline (R1-R6);
//
//	docs/ARCHITECTURE § Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mdpress/internal/convert"
	"github.com/pdiddy/mdpress/internal/images"
	"github.com/pdiddy/mdpress/internal/interleave"
	"github.com/pdiddy/mdpress/internal/normalize"
	"github.com/pdiddy/mdpress/internal/upload"
	"github.com/pdiddy/mdpress/pkg/types"
)

const (
	// markdownDir is the subdirectory under the docs base for Markdown output.
	markdownDir = "markdown"
	// reportsDir is the subdirectory under the docs base for conversion reports.
	reportsDir = "reports"
)

// Pipeline converts documents using injected collaborators. A nil
// Uploader disables image uploading; found images are then counted but
// the artifact stays text-only. A nil Cache disables upload dedupe.
type Pipeline struct {
	Converter convert.Converter
	Extractor images.Extractor
	Uploader  upload.Uploader
	Cache     *upload.Cache
	Config    types.PipelineConfig
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Partial   int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Partial + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Report records the outcome of one document conversion. It is written
// as YAML next to the artifact under docs/reports.
type Report struct {
	DocumentID     string         `yaml:"document_id"`
	SourcePDF      string         `yaml:"source_pdf"`
	SourceURL      string         `yaml:"source_url,omitempty"`
	Destination    string         `yaml:"destination"`
	Status         string         `yaml:"status"`
	ImagesFound    int            `yaml:"images_found"`
	ImagesUploaded int            `yaml:"images_uploaded"`
	ImagesFailed   int            `yaml:"images_failed"`
	Images         []ImageOutcome `yaml:"images,omitempty"`
	ConvertedAt    time.Time      `yaml:"converted_at"`
}

// ImageOutcome is the per-image entry of a Report, keyed by extraction
// ordinal.
type ImageOutcome struct {
	Ordinal int    `yaml:"ordinal"`
	Page    int    `yaml:"page,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Cached  bool   `yaml:"cached,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// ConvertDocument converts one PDF to Markdown with its images re-hosted.
// Text extraction failing or yielding no text is fatal for the document
// and no artifact is written (R2.1). Image-side failures only degrade
// the artifact: extraction failure converts text-only (R2.2), and each
// image that fails normalization or upload is dropped with a warning
// while the rest are renumbered (R3, R4). An existing artifact is
// skipped unless Force is set.
func (p *Pipeline) ConvertDocument(ctx context.Context, doc *types.Document, w io.Writer) types.ConversionStatus {
	base := doc.ID
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(doc.PDFPath), filepath.Ext(doc.PDFPath))
		doc.ID = base
	}

	outDir := filepath.Join(p.Config.Conversion.DocsDir, markdownDir)
	mdPath := filepath.Join(outDir, base+".md")

	if !p.Config.Conversion.Force {
		if _, err := os.Stat(mdPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
			return types.ConversionNone
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	text, err := p.Converter.Convert(doc.PDFPath)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("conversion produced no text")
	}
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	imgs, err := p.Extractor.Extract(doc.PDFPath)
	if err != nil {
		// A PDF whose images cannot be read still converts text-only.
		fmt.Fprintf(w, "  warning: image extraction failed: %v\n", err)
		imgs = nil
	}
	found := len(imgs)

	normErrs := make(map[int]string)
	var normalized []types.NormalizedImage
	for _, img := range imgs {
		n, err := normalize.Normalize(img)
		if err != nil {
			fmt.Fprintf(w, "  warning: %s: %v\n", imageLabel(img.Ordinal, found, img.Page), err)
			normErrs[img.Ordinal] = err.Error()
			continue
		}
		normalized = append(normalized, n)
	}

	var results []upload.Result
	if p.Uploader != nil && len(normalized) > 0 {
		coord := &upload.Coordinator{
			Uploader: p.Uploader,
			Cache:    p.Cache,
			Config:   p.Config.Upload,
			Progress: func(completed, total int, res upload.Result) {
				outcome := "uploaded"
				if res.Cached {
					outcome = "cached"
				}
				if res.Err != nil {
					outcome = "failed"
				}
				fmt.Fprintf(w, "  [%d/%d] image %d %s\n", completed, total, res.Ordinal+1, outcome)
			},
		}
		results = coord.UploadAll(ctx, normalized)
	} else if p.Uploader == nil && found > 0 {
		fmt.Fprintf(w, "  found %d images (upload disabled)\n", found)
	}

	// Collect successful URLs in ordinal order; the results slice is
	// already ordered by input position (R3.2).
	var urls []string
	uploadErrs := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "  warning: %s: %v\n", imageLabel(res.Ordinal, found, res.Page), res.Err)
			uploadErrs++
			continue
		}
		urls = append(urls, res.URL)
	}
	imageFailures := len(normErrs) + uploadErrs

	content := strings.Join(interleave.Merge(strings.Split(text, "\n"), urls), "\n")
	if p.Config.Conversion.Frontmatter {
		content = addFrontmatter(doc, found, len(urls), content)
	}

	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		doc.ConversionStatus = types.ConversionFailed
		return types.ConversionFailed
	}

	doc.MarkdownPath = mdPath
	doc.ConvertedAt = time.Now().UTC()
	if imageFailures > 0 {
		doc.ConversionStatus = types.ConversionPartial
	} else {
		doc.ConversionStatus = types.ConversionDone
	}

	rep := Report{
		DocumentID:     base,
		SourcePDF:      doc.PDFPath,
		SourceURL:      doc.SourceURL,
		Destination:    mdPath,
		Status:         string(doc.ConversionStatus),
		ImagesFound:    found,
		ImagesUploaded: len(urls),
		ImagesFailed:   imageFailures,
		Images:         imageOutcomes(imgs, normErrs, results),
		ConvertedAt:    doc.ConvertedAt,
	}
	if err := p.writeReport(rep); err != nil {
		fmt.Fprintf(w, "  warning: writing report: %v\n", err)
	}

	if imageFailures > 0 {
		fmt.Fprintf(w, "partial: %s (%d images uploaded, %d failed)\n", base, len(urls), imageFailures)
	} else {
		fmt.Fprintf(w, "converted: %s (%d images)\n", base, len(urls))
	}
	return doc.ConversionStatus
}

// ConvertBatch processes documents in sequence, printing per-document
// status to w and returning a summary. It continues after individual
// failures (R5.1).
func (p *Pipeline) ConvertBatch(ctx context.Context, docs []*types.Document, w io.Writer) BatchResult {
	var result BatchResult
	for _, doc := range docs {
		switch p.ConvertDocument(ctx, doc, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionPartial:
			result.Partial++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d partial, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Partial, result.Skipped, result.Failed, result.Total())
	return result
}

// imageLabel names an image in warnings: 1-based position, total count,
// and the page hint when one is known.
func imageLabel(ordinal, total, page int) string {
	if page > 0 {
		return fmt.Sprintf("image %d/%d (page %d)", ordinal+1, total, page)
	}
	return fmt.Sprintf("image %d/%d", ordinal+1, total)
}

// imageOutcomes merges normalization failures and upload results into
// per-image report entries, in extraction order.
func imageOutcomes(imgs []types.ExtractedImage, normErrs map[int]string, results []upload.Result) []ImageOutcome {
	byOrdinal := make(map[int]upload.Result, len(results))
	for _, res := range results {
		byOrdinal[res.Ordinal] = res
	}

	outcomes := make([]ImageOutcome, 0, len(imgs))
	for _, img := range imgs {
		o := ImageOutcome{Ordinal: img.Ordinal, Page: img.Page}
		if msg, ok := normErrs[img.Ordinal]; ok {
			o.Error = msg
		} else if res, ok := byOrdinal[img.Ordinal]; ok {
			if res.Err != nil {
				o.Error = res.Err.Error()
			} else {
				o.URL = res.URL
				o.Cached = res.Cached
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (p *Pipeline) writeReport(rep Report) error {
	dir := filepath.Join(p.Config.Conversion.DocsDir, reportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, rep.DocumentID+".yaml"), data, 0o644)
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(doc *types.Document, found, uploaded int, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "document_id: %q\n", doc.ID)
	fmt.Fprintf(&b, "source_pdf: %q\n", doc.PDFPath)
	if doc.SourceURL != "" {
		fmt.Fprintf(&b, "source_url: %q\n", doc.SourceURL)
	}
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	fmt.Fprintf(&b, "images_found: %d\n", found)
	fmt.Fprintf(&b, "images_uploaded: %d\n", uploaded)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
