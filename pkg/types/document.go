// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the state of PDF-to-Markdown conversion for a document.
// Per prd006-pipeline R4.4.
type ConversionStatus string

const (
	ConversionNone    ConversionStatus = "none"
	ConversionDone    ConversionStatus = "converted"
	ConversionPartial ConversionStatus = "partial"
	ConversionFailed  ConversionStatus = "failed"
)

// Document holds identity and file paths for one PDF moving through the pipeline.
// Per prd006-pipeline R1.2: source URL (when fetched), local PDF path, markdown
// destination, and conversion status.
type Document struct {
	// ID is a slug derived from the PDF filename (e.g. "attention-is-all-you-need").
	ID string `json:"id" yaml:"id"`

	// SourceURL is the URL the PDF was downloaded from, empty for local files.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// PDFPath is the local filesystem path to the PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// MarkdownPath is the destination path of the converted document.
	MarkdownPath string `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`

	// ConvertedAt is when conversion finished, zero until then.
	ConvertedAt time.Time `json:"converted_at,omitempty" yaml:"converted_at,omitempty"`

	// ConversionStatus tracks whether the PDF has been converted to Markdown.
	ConversionStatus ConversionStatus `json:"conversion_status" yaml:"conversion_status"`
}
