// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/pdiddy/mdpress/pkg/types"
)

// testImage returns a small solid-color image for encoding fixtures.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, format types.ImageFormat, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case types.FormatPNG:
		err = png.Encode(&buf, img)
	case types.FormatJPEG:
		err = jpeg.Encode(&buf, img, nil)
	case types.FormatGIF:
		err = gif.Encode(&buf, img, nil)
	case types.FormatBMP:
		err = bmp.Encode(&buf, img)
	case types.FormatTIFF:
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %s", format)
	}
	if err != nil {
		t.Fatalf("encoding %s fixture: %v", format, err)
	}
	return buf.Bytes()
}

func TestNormalizePassThrough(t *testing.T) {
	payload := encode(t, types.FormatPNG, testImage(8, 8))
	src := types.ExtractedImage{
		Ordinal: 2,
		Data:    payload,
		Format:  types.FormatPNG,
		Page:    5,
		Name:    "doc_page_5_Im0.png",
	}

	norm, err := Normalize(src)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !bytes.Equal(norm.Data, payload) {
		t.Error("PNG payload should pass through byte-identical")
	}
	if norm.Ordinal != 2 || norm.Page != 5 {
		t.Errorf("ordinal/page = %d/%d, want 2/5", norm.Ordinal, norm.Page)
	}
}

func TestNormalizeTranscodes(t *testing.T) {
	formats := []types.ImageFormat{
		types.FormatJPEG,
		types.FormatGIF,
		types.FormatBMP,
		types.FormatTIFF,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			src := types.ExtractedImage{
				Ordinal: 1,
				Data:    encode(t, format, testImage(12, 7)),
				Format:  format,
				Name:    "img." + string(format),
			}

			norm, err := Normalize(src)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if norm.Ordinal != 1 {
				t.Errorf("Ordinal = %d, want 1", norm.Ordinal)
			}

			decoded, err := png.Decode(bytes.NewReader(norm.Data))
			if err != nil {
				t.Fatalf("output is not valid PNG: %v", err)
			}
			bounds := decoded.Bounds()
			if bounds.Dx() != 12 || bounds.Dy() != 7 {
				t.Errorf("dimensions = %dx%d, want 12x7", bounds.Dx(), bounds.Dy())
			}
		})
	}
}

func TestNormalizeUnsupported(t *testing.T) {
	tests := []struct {
		name string
		img  types.ExtractedImage
	}{
		{
			name: "undecodable bytes",
			img: types.ExtractedImage{
				Data:   []byte("not an image at all"),
				Format: types.FormatUnknown,
				Name:   "blob.jp2",
			},
		},
		{
			name: "truncated jpeg",
			img: types.ExtractedImage{
				Data:   encode(t, types.FormatJPEG, testImage(8, 8))[:10],
				Format: types.FormatJPEG,
				Name:   "cut.jpg",
			},
		},
		{
			name: "empty payload",
			img: types.ExtractedImage{
				Format: types.FormatGIF,
				Name:   "empty.gif",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.img)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("err = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}
