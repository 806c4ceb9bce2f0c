// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mdpress pipeline.
// Implements: prd002-images (ExtractedImage, R2.1-R2.4);
//
//	prd003-normalize (NormalizedImage, R1.3);
//	prd006-pipeline (Document, ConversionStatus);
//	prd004-upload, prd007-fetch, prd001-conversion (stage configs).
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

// ImageFormat is the declared raster format of an extracted image,
// derived from the extension the extractor wrote.
type ImageFormat string

const (
	FormatPNG     ImageFormat = "png"
	FormatJPEG    ImageFormat = "jpeg"
	FormatGIF     ImageFormat = "gif"
	FormatTIFF    ImageFormat = "tiff"
	FormatBMP     ImageFormat = "bmp"
	FormatWebP    ImageFormat = "webp"
	FormatUnknown ImageFormat = "unknown"
)

// ExtractedImage is one raster image recovered from a PDF.
// Per prd002-images R2.1: the ordinal is the extraction order, stable and
// unique within a document, and is the authoritative identity of the image
// through normalization and upload. Page is a best-effort hint parsed from
// the extractor's filename, 0 when unknown; it never influences ordering.
type ExtractedImage struct {
	// Ordinal is the zero-based extraction position within the document.
	Ordinal int `json:"ordinal" yaml:"ordinal"`

	// Data is the raw image payload.
	Data []byte `json:"-" yaml:"-"`

	// Format is the declared raster format of Data.
	Format ImageFormat `json:"format" yaml:"format"`

	// Page is the one-based source page hint, 0 when unknown.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	// Name is the extractor's filename for the image, used in warnings.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// NormalizedImage is an ExtractedImage transcoded to the upload format.
// The ordinal and page hint carry over unchanged from the source image
// so upload results can be matched back to extraction order (R1.3).
type NormalizedImage struct {
	// Ordinal is the extraction ordinal of the source image.
	Ordinal int `json:"ordinal" yaml:"ordinal"`

	// Data is the PNG payload ready for upload.
	Data []byte `json:"-" yaml:"-"`

	// Page is the one-based source page hint, 0 when unknown.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`

	// Name is the source image name, used in warnings and upload filenames.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}
