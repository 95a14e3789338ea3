// Package filter implements the PDF stream filter pipeline: ASCIIHexDecode
// and FlateDecode. Unsupported filter names are rejected explicitly rather
// than passed through, so that a stream nobody can decode never silently
// returns its still-encoded bytes.
package filter

import (
	"bytes"
	"fmt"
	"io"

	"inkwell.dev/pdf/internal/deflate"
)

// ErrUnsupportedFilter is returned by Decode for any /Filter name other than
// ASCIIHexDecode and FlateDecode.
type ErrUnsupportedFilter struct {
	Name string
}

func (e *ErrUnsupportedFilter) Error() string {
	return fmt.Sprintf("filter: unsupported filter %q", e.Name)
}

// Decode applies the named filters in order, as PDF requires for a /Filter
// array: the first name is applied first, its output feeding the next.
// With no names at all, the input is returned unchanged (copied).
func Decode(data []byte, names []string) ([]byte, error) {
	if len(names) == 0 {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	cur := data
	for _, name := range names {
		var err error
		cur, err = decodeOne(cur, name)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func decodeOne(data []byte, name string) ([]byte, error) {
	switch name {
	case "ASCIIHexDecode":
		return ASCIIHexDecode(data)
	case "FlateDecode":
		return FlateDecode(data)
	default:
		return nil, &ErrUnsupportedFilter{Name: name}
	}
}

// ASCIIHexDecode decodes whitespace-tolerant pairs of hex digits, terminated
// by '>'. An odd trailing digit is treated as the upper nibble of a final
// byte whose lower nibble is zero. Missing terminator or an invalid digit is
// an error.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	var out []byte
	var hi int
	haveHi := false
	terminated := false

	for _, b := range data {
		if b == '>' {
			terminated = true
			break
		}
		if isHexWhitespace(b) {
			continue
		}
		v, ok := hexVal(b)
		if !ok {
			return nil, fmt.Errorf("filter: invalid hex digit %q in ASCIIHexDecode stream", b)
		}
		if !haveHi {
			hi = v
			haveHi = true
		} else {
			out = append(out, byte(hi<<4|v))
			haveHi = false
		}
	}

	if !terminated {
		return nil, fmt.Errorf("filter: ASCIIHexDecode stream has no '>' terminator")
	}
	if haveHi {
		out = append(out, byte(hi<<4))
	}
	return out, nil
}

func isHexWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func hexVal(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}

// FlateDecode decodes PDF's zlib-wrapped deflate stream: a 2-byte zlib
// header (CMF/FLG), the raw RFC 1951 payload handled by internal/deflate,
// and a trailing 4-byte Adler-32 checksum which PDF readers conventionally
// do not verify (producers are frequently slightly non-conformant here).
func FlateDecode(data []byte) ([]byte, error) {
	body, err := stripZlibHeader(data)
	if err != nil {
		return nil, err
	}
	return deflate.Decode(body)
}

func stripZlibHeader(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("filter: FlateDecode stream too short for a zlib header")
	}
	cmf := data[0]
	flg := data[1]
	if cmf&0x0f != 8 {
		return nil, fmt.Errorf("filter: FlateDecode stream has an unsupported compression method %d", cmf&0x0f)
	}
	if (uint(cmf)*256+uint(flg))%31 != 0 {
		return nil, fmt.Errorf("filter: FlateDecode stream fails the zlib header checksum")
	}
	body := data[2:]
	if flg&0x20 != 0 {
		// FDICT set: a 4-byte dictionary id follows the header. PDF never
		// uses a preset dictionary, but skip it defensively rather than
		// mis-parse the following bytes as compressed data.
		if len(body) < 4 {
			return nil, fmt.Errorf("filter: FlateDecode stream truncated in FDICT")
		}
		body = body[4:]
	}
	return body, nil
}

// Reader wraps Decode in an io.Reader, for callers that want to stream a
// decoded stream's bytes rather than materialize them up front.
func Reader(data []byte, names []string) (io.Reader, error) {
	out, err := Decode(data, names)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out), nil
}
