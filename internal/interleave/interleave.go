// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package interleave places uploaded image references at evenly spaced
// positions in converted Markdown text.
// Implements: prd005-interleave (R1-R4);
//
//	docs/ARCHITECTURE § Interleaving.
package interleave

import "fmt"

// Ref renders the Markdown reference for the n-th surviving image.
// Numbering restarts at 1 for every document and follows the order of
// the successful-upload list, not the extraction ordinal (R2.3).
func Ref(n int, url string) string {
	return fmt.Sprintf("![Image %d](%s)", n, url)
}

// Merge distributes image references evenly through a document.
//
// The document is walked in len(urls) chunks of floor(L/(K+1)) lines
// (minimum 1 so short documents still make forward progress); after each
// chunk the next reference is appended, surrounded by blank lines, and
// whatever follows the final reference is copied through verbatim. Every
// input line appears in the output exactly once, in its original order
// (R3.1-R3.3). With no references the input is returned unchanged, so a
// text-only conversion round-trips byte for byte.
//
// Placement is a deliberate approximation: source layout positions are
// unknown at this point, so references are spaced by line count alone.
// Chunk bounds clamp at the end of the document; a document shorter than
// the reference count front-loads the remaining references (R4.2).
func Merge(lines []string, urls []string) []string {
	if len(urls) == 0 {
		return lines
	}

	sectionSize := len(lines) / (len(urls) + 1)
	if sectionSize == 0 {
		sectionSize = 1
	}

	out := make([]string, 0, len(lines)+3*len(urls))
	cursor := 0
	for i, url := range urls {
		end := cursor + sectionSize
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, lines[cursor:end]...)
		out = append(out, "", Ref(i+1, url), "")
		cursor = end
	}
	return append(out, lines[cursor:]...)
}
