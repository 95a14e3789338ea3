package pdf

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// pdfDocSpecials holds the code points where PDFDocEncoding diverges from
// ISO-8859-1 in the 0x18-0x1F and 0x80-0x9F ranges (PDF 32000-1:2008, Annex
// D.2). Everything else maps straight through to Latin-1, so the bulk of
// the work is delegated to golang.org/x/text/encoding/charmap rather than
// hand-rolling a full 256-entry table.
var pdfDocSpecials = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1A: 'ˆ', 0x1B: '˙',
	0x1C: '˝', 0x1D: '˛', 0x1E: '˚', 0x1F: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8A: '−', 0x8B: '‰',
	0x8C: '„', 0x8D: '“', 0x8E: '”', 0x8F: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9A: 'ı', 0x9B: 'ł',
	0x9C: 'œ', 0x9D: 'š', 0x9E: 'ž', 0x9F: '€',
}

var pdfDocSpecialsInverse = func() map[rune]byte {
	m := make(map[rune]byte, len(pdfDocSpecials))
	for b, r := range pdfDocSpecials {
		m[r] = b
	}
	return m
}()

// PDFDocDecode converts a raw PDF string, assumed to be encoded with
// PDFDocEncoding, to a UTF-8 Go string.
func PDFDocDecode(s String) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if r, ok := pdfDocSpecials[c]; ok {
			b.WriteRune(r)
			continue
		}
		r := charmap.ISO8859_1.DecodeByte(c)
		b.WriteRune(r)
	}
	return b.String()
}

// PDFDocEncode attempts to encode s as PDFDocEncoding, returning ok=false if
// s contains a rune outside the encoding's repertoire.
func PDFDocEncode(s string) (String, bool) {
	out := make(String, 0, len(s))
	for _, r := range s {
		if b, ok := pdfDocSpecialsInverse[r]; ok {
			out = append(out, b)
			continue
		}
		if r < 0x18 || r >= 0x20 && r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok || b >= 0x18 && b <= 0x1F || b >= 0x80 && b <= 0x9F {
			return nil, false
		}
		out = append(out, b)
	}
	return out, true
}
