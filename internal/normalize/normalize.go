// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize transcodes extracted raster images into the single
// format the image host accepts.
// Implements: prd003-normalize (R1-R3);
//
//	docs/ARCHITECTURE § Normalization.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Decoder registrations for the formats PDF extraction produces.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pdiddy/mdpress/pkg/types"
)

// ErrUnsupportedFormat marks a payload that cannot be decoded into the
// upload format. The owning document continues without that image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Normalize returns img's payload in PNG form. A payload already declared
// PNG passes through byte-identical (R1.2); anything else is decoded and
// re-encoded. The ordinal and page hint carry over unchanged.
func Normalize(img types.ExtractedImage) (types.NormalizedImage, error) {
	norm := types.NormalizedImage{
		Ordinal: img.Ordinal,
		Page:    img.Page,
		Name:    img.Name,
	}

	if img.Format == types.FormatPNG {
		norm.Data = img.Data
		return norm, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return types.NormalizedImage{}, fmt.Errorf("decoding %s as %s: %w", img.Name, img.Format, ErrUnsupportedFormat)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return types.NormalizedImage{}, fmt.Errorf("encoding %s: %w", img.Name, err)
	}
	norm.Data = buf.Bytes()
	return norm, nil
}
