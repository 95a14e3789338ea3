// Package glyph ingests embedded SFNT/TrueType font programs: it reads the
// head, maxp, loca, glyf, and cmap tables needed to look up glyph
// identifiers and bounding boxes. Outline rasterization is out of scope;
// callers needing rendered glyph shapes must extract the raw outline data
// themselves and pass it on to a canvas backend.
package glyph

import (
	"fmt"
	"io"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyph"
)

// Font wraps a parsed embedded font program.
type Font struct {
	raw *sfnt.Font
}

// Load parses an embedded font program (the decoded contents of a
// FontFile/FontFile2/FontFile3 stream) as SFNT/TrueType.
func Load(r io.Reader) (*Font, error) {
	f, err := sfnt.Read(r)
	if err != nil {
		return nil, fmt.Errorf("glyph: parsing embedded font: %w", err)
	}
	return &Font{raw: f}, nil
}

// NumGlyphs is the glyph count recorded in the font's maxp table.
func (f *Font) NumGlyphs() int {
	if f.raw.Outlines == nil {
		return 0
	}
	return f.raw.Outlines.NumGlyphs()
}

// UnitsPerEm is the font design unit scale recorded in the head table.
func (f *Font) UnitsPerEm() int {
	return int(f.raw.UnitsPerEm)
}

// Lookup resolves r through the font's best available cmap subtable,
// returning the corresponding glyph id and whether the lookup succeeded.
func (f *Font) Lookup(r rune) (glyph.ID, bool) {
	if f.raw.CMapTable == nil {
		return 0, false
	}
	subtable, err := f.raw.CMapTable.GetBest()
	if err != nil || subtable == nil {
		return 0, false
	}
	gid := subtable.Lookup(r)
	return gid, gid != 0
}

// BBox returns the font-unit bounding box for gid, following the loca/glyf
// tables, if the font carries outline data.
func (f *Font) BBox(gid glyph.ID) (BBox, bool) {
	if f.raw.Outlines == nil {
		return BBox{}, false
	}
	boxes := f.raw.GlyphBBoxes()
	if int(gid) < 0 || int(gid) >= len(boxes) {
		return BBox{}, false
	}
	b := boxes[gid]
	return BBox{LLx: float64(b.LLx), LLy: float64(b.LLy), URx: float64(b.URx), URy: float64(b.URy)}, true
}

// BBox is a glyph's bounding box in font design units.
type BBox struct {
	LLx, LLy, URx, URy float64
}
