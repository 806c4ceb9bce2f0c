// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements PDF text extraction with pluggable backends.
// Implements: prd001-conversion (R1, R2, R5);
//
//	docs/ARCHITECTURE § Text Extraction.
package convert

import (
	"fmt"

	"github.com/pdiddy/mdpress/internal/container"
	"github.com/pdiddy/mdpress/pkg/types"
)

// Converter transforms a PDF file into Markdown text. Image references
// are never part of the output; images travel through their own
// extraction path and rejoin the text at interleaving.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the Markdown content.
	Convert(pdfPath string) (string, error)
}

// New returns the converter for the selected backend (R5.1). The
// markitdown backend needs a container runtime on the host and verifies
// the image before first use.
func New(backend types.ConversionBackend) (Converter, error) {
	switch backend {
	case types.BackendNative, "":
		return NativeConverter{}, nil
	case types.BackendMarkitdown:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, fmt.Errorf("markitdown backend: %w", err)
		}
		return NewMarkitdownConverter(rt)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q", backend)
	}
}
