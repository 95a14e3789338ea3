package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// realLimit is the magnitude PDF 32000-1:2008's Real literals clamp to
// (the largest finite float32, per spec: ±3.403e38) even though Real is
// backed by a float64 here.
const realLimit = 3.403e38

// ParseCtx is a cursor over an in-memory PDF byte buffer. Every read either
// advances Pos or (for the Peek variants) leaves it untouched; out-of-bounds
// reads return an error rather than panicking, so a truncated or corrupt
// file never reaches past the end of the buffer.
type ParseCtx struct {
	buf []byte
	Pos int64
}

// NewParseCtx creates a parse context over buf. The buffer is not copied;
// callers must not mutate it while the context is in use.
func NewParseCtx(buf []byte) *ParseCtx {
	return &ParseCtx{buf: buf}
}

// Len returns the total length of the underlying buffer.
func (c *ParseCtx) Len() int64 {
	return int64(len(c.buf))
}

// Seek moves the cursor to an absolute offset. Seeking past the end of the
// buffer is allowed, to support locating trailing structures by scanning
// backward from an assumed offset; the next read simply returns 0 bytes.
func (c *ParseCtx) Seek(pos int64) error {
	if pos < 0 {
		return &MalformedFileError{Err: fmt.Errorf("seek to negative offset %d", pos), Pos: pos}
	}
	c.Pos = pos
	return nil
}

// Bytes returns the range [from, to) of the buffer, clamped to the buffer's
// length when shrink is true; otherwise a request that runs past the end is
// an error.
func (c *ParseCtx) Bytes(from, to int64, shrink bool) ([]byte, error) {
	if from < 0 || to < from {
		return nil, &MalformedFileError{Err: fmt.Errorf("invalid byte range [%d, %d)", from, to)}
	}
	size := c.Len()
	if from > size {
		from = size
	}
	if to > size {
		if shrink {
			to = size
		} else {
			return nil, &MalformedFileError{Err: fmt.Errorf("byte range [%d, %d) exceeds buffer of length %d", from, to, size), Pos: from}
		}
	}
	return c.buf[from:to], nil
}

// byte-class tables, identical to PDF 32000-1:2008 Annex D whitespace and
// delimiter sets.
var (
	isSpace = [256]bool{
		0: true, 9: true, 10: true, 12: true, 13: true, 32: true,
	}
	isDelimiter = [256]bool{
		'(': true, ')': true, '<': true, '>': true,
		'[': true, ']': true, '{': true, '}': true,
		'/': true, '%': true,
	}
)

func isRegular(b byte) bool {
	return !isSpace[b] && !isDelimiter[b]
}

// expect consumes pattern starting at pos if it matches, returning the
// position just past it; otherwise pos is returned unchanged together with
// an error.
func (c *ParseCtx) expect(pos int64, pattern string) (int64, error) {
	end := pos + int64(len(pattern))
	buf, err := c.Bytes(pos, end, true)
	if err != nil {
		return pos, err
	}
	if bytes.Equal(buf, []byte(pattern)) {
		return end, nil
	}
	return pos, errMalformedAt(pos)
}

func errMalformedAt(pos int64) error {
	return &MalformedFileError{Pos: pos}
}

// expectBytes consumes bytes starting at pos for as long as cont returns
// true, reading the buffer in small chunks so arbitrarily long tokens never
// require reading the whole remaining file at once.
func (c *ParseCtx) expectBytes(pos int64, cont func(byte) bool) (int64, error) {
	const chunk = 64
	start := pos
	for {
		buf, err := c.Bytes(start, start+chunk, true)
		if err != nil {
			return 0, err
		}
		if len(buf) == 0 {
			return start, nil
		}
		for i, b := range buf {
			if !cont(b) {
				return start + int64(i), nil
			}
		}
		start += int64(len(buf))
	}
}

func (c *ParseCtx) skipWhiteSpace(pos int64) (int64, error) {
	inComment := false
	return c.expectBytes(pos, func(b byte) bool {
		if inComment {
			if b == '\r' || b == '\n' {
				inComment = false
			}
			return true
		}
		if b == '%' {
			inComment = true
			return true
		}
		return isSpace[b]
	})
}

func (c *ParseCtx) expectEOL(pos int64) (int64, error) {
	buf, err := c.Bytes(pos, pos+2, true)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 || (buf[0] != '\r' && buf[0] != '\n') {
		return 0, errMalformedAt(pos)
	}
	if len(buf) > 1 && buf[0] == '\r' && buf[1] == '\n' {
		return pos + 2, nil
	}
	return pos + 1, nil
}

func (c *ParseCtx) expectInteger(pos int64) (int64, int64, error) {
	var res []byte
	first := true
	p2, err := c.expectBytes(pos, func(b byte) bool {
		switch {
		case first && (b == '+' || b == '-'):
			res = append(res, b)
		case b >= '0' && b <= '9':
			res = append(res, b)
		default:
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return 0, 0, err
	}
	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return pos, 0, errMalformedAt(pos)
	}
	return p2, x, nil
}

// parseNumericOrReference handles the lexer ambiguity that a bare integer
// may turn out to be the first half of an "id gen R" indirect reference. On
// any failure to complete the reference pattern, it recovers by returning
// the plain number already parsed rather than propagating the error — the
// one parser-level, non-propagating recovery point in the object grammar.
func (c *ParseCtx) parseNumericOrReference(pos int64) (int64, Object, error) {
	var res []byte
	hasDot := false
	first := true
	p2, err := c.expectBytes(pos, func(b byte) bool {
		switch {
		case !hasDot && b == '.':
			hasDot = true
			res = append(res, b)
		case first && (b == '+' || b == '-'):
			res = append(res, b)
		case b >= '0' && b <= '9':
			res = append(res, b)
		default:
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return 0, nil, err
	}

	if hasDot {
		x, err := strconv.ParseFloat(string(res), 64)
		if err != nil {
			return pos, nil, errMalformedAt(pos)
		}
		switch {
		case x > realLimit:
			x = realLimit
		case x < -realLimit:
			x = -realLimit
		}
		return p2, Real(x), nil
	}

	x1, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return pos, nil, errMalformedAt(pos)
	}
	if x1 < math.MinInt32 || x1 > math.MaxInt32 {
		return pos, nil, &MalformedFileError{Err: ErrNumberLimit, Pos: pos}
	}

	// Attempt the "gen R" continuation; any failure recovers to the plain
	// Integer already parsed.
	p3, err := c.skipWhiteSpace(p2)
	if err != nil {
		return p2, Integer(x1), nil
	}
	p3, x2, err := c.expectInteger(p3)
	if err != nil {
		return p2, Integer(x1), nil
	}
	p3, err = c.skipWhiteSpace(p3)
	if err != nil {
		return p2, Integer(x1), nil
	}
	p3, err = c.expect(p3, "R")
	if err != nil {
		return p2, Integer(x1), nil
	}
	if x1 < 0 || x2 < 0 {
		return p2, Integer(x1), nil
	}
	return p3, Reference{Number: uint32(x1), Generation: uint16(x2)}, nil
}

func (c *ParseCtx) parseName(pos int64) (int64, Name, error) {
	pos, err := c.expect(pos, "/")
	if err != nil {
		return pos, "", err
	}

	var res []byte
	hexDigits := 0
	var hexByte byte
	pos, err = c.expectBytes(pos, func(b byte) bool {
		switch {
		case hexDigits > 0:
			v, ok := hexVal(b)
			if !ok {
				return false
			}
			hexByte = hexByte*16 + byte(v)
			hexDigits--
			if hexDigits == 0 {
				res = append(res, hexByte)
			}
		case b == '#':
			hexByte = 0
			hexDigits = 2
		case !isRegular(b):
			return false
		default:
			res = append(res, b)
		}
		return true
	})
	if err != nil {
		return 0, "", err
	}
	return pos, Name(res), nil
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

func (c *ParseCtx) parseBool(pos int64) (int64, Boolean, error) {
	if p2, err := c.expect(pos, "true"); err == nil {
		return p2, Boolean(true), nil
	}
	if p2, err := c.expect(pos, "false"); err == nil {
		return p2, Boolean(false), nil
	}
	return pos, false, errMalformedAt(pos)
}

func (c *ParseCtx) parseNull(pos int64) (int64, error) {
	return c.expect(pos, "null")
}

// parseLiteralString parses a "(...)" string, handling nested balanced
// parens, backslash escapes, and line-continuation backslash-newline.
func (c *ParseCtx) parseLiteralString(pos int64) (int64, String, error) {
	pos, err := c.expect(pos, "(")
	if err != nil {
		return pos, nil, err
	}

	var out []byte
	depth := 1
	for {
		b, err := c.Bytes(pos, pos+1, true)
		if err != nil {
			return 0, nil, err
		}
		if len(b) == 0 {
			return 0, nil, errMalformedAt(pos)
		}
		ch := b[0]
		pos++
		switch ch {
		case '(':
			depth++
			out = append(out, ch)
		case ')':
			depth--
			if depth == 0 {
				return pos, out, nil
			}
			out = append(out, ch)
		case '\\':
			nb, err := c.Bytes(pos, pos+1, true)
			if err != nil {
				return 0, nil, err
			}
			if len(nb) == 0 {
				return 0, nil, errMalformedAt(pos)
			}
			esc := nb[0]
			pos++
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, esc)
			case '\r':
				if nb2, _ := c.Bytes(pos, pos+1, true); len(nb2) > 0 && nb2[0] == '\n' {
					pos++
				}
			case '\n':
				// line continuation, emit nothing
			default:
				if esc >= '0' && esc <= '7' {
					val := int(esc - '0')
					for i := 0; i < 2; i++ {
						db, _ := c.Bytes(pos, pos+1, true)
						if len(db) == 0 || db[0] < '0' || db[0] > '7' {
							break
						}
						val = val*8 + int(db[0]-'0')
						pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, esc)
				}
			}
		default:
			out = append(out, ch)
		}
	}
}

// parseHexString parses a "<...>" hex string, ignoring interior whitespace
// and padding a trailing lone nibble with a zero low nibble.
func (c *ParseCtx) parseHexString(pos int64) (int64, String, error) {
	pos, err := c.expect(pos, "<")
	if err != nil {
		return pos, nil, err
	}

	var out []byte
	var hi int
	haveHi := false
	for {
		b, err := c.Bytes(pos, pos+1, true)
		if err != nil {
			return 0, nil, err
		}
		if len(b) == 0 {
			return 0, nil, errMalformedAt(pos)
		}
		ch := b[0]
		pos++
		if ch == '>' {
			if haveHi {
				out = append(out, byte(hi<<4))
			}
			return pos, out, nil
		}
		if isSpace[ch] {
			continue
		}
		v, ok := hexVal(ch)
		if !ok {
			return 0, nil, errMalformedAt(pos - 1)
		}
		if !haveHi {
			hi = v
			haveHi = true
		} else {
			out = append(out, byte(hi<<4|v))
			haveHi = false
		}
	}
}

func (c *ParseCtx) parseArray(pos int64) (int64, Array, error) {
	pos, err := c.expect(pos, "[")
	if err != nil {
		return pos, nil, err
	}

	var arr Array
	for {
		pos, err = c.skipWhiteSpace(pos)
		if err != nil {
			return 0, nil, err
		}
		if p2, err := c.expect(pos, "]"); err == nil {
			return p2, arr, nil
		}

		var obj Object
		pos, obj, err = c.parseObject(pos)
		if err != nil {
			return 0, nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDictOrStream parses a "<<...>>" dictionary and, if followed by the
// "stream" keyword, the stream body described by the dictionary's /Length
// entry. If the stream keyword is present but /Length cannot be resolved to
// a direct Integer (common when /Length is an indirect reference into an
// xref table not yet built), parsing falls back to locating "endstream" by
// search — the dictionary-level recovery point in the object grammar.
func (c *ParseCtx) parseDictOrStream(pos int64) (int64, Object, error) {
	pos, dict, err := c.parseDict(pos)
	if err != nil {
		return pos, nil, err
	}

	p2, err := c.skipWhiteSpace(pos)
	if err != nil {
		return 0, nil, err
	}
	p2, err = c.expect(p2, "stream")
	if err != nil {
		// not a stream, just a bare dictionary
		return pos, dict, nil
	}

	// PDF 32000-1:2008 §7.3.8.1: "stream" is followed by CRLF or LF (bare CR
	// is non-conformant but tolerated).
	buf, err := c.Bytes(p2, p2+2, true)
	if err != nil {
		return 0, nil, err
	}
	switch {
	case len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n':
		p2 += 2
	case len(buf) >= 1 && buf[0] == '\n':
		p2++
	default:
		return 0, nil, errMalformedAt(p2)
	}

	length, lengthErr := intFromDict(dict, "Length")
	var raw []byte
	var end int64
	if lengthErr == nil {
		raw, err = c.Bytes(p2, p2+length, false)
		if err == nil {
			end = p2 + length
			end, err = c.skipWhiteSpace(end)
			if err == nil {
				if p3, eerr := c.expect(end, "endstream"); eerr == nil {
					return p3, &Stream{Dict: dict, Raw: raw}, nil
				}
			}
		}
	}

	// Recovery: /Length was missing, indirect, or wrong; search for the
	// next "endstream" token instead.
	rest, err := c.Bytes(p2, c.Len(), true)
	if err != nil {
		return 0, nil, err
	}
	idx := bytes.Index(rest, []byte("endstream"))
	if idx < 0 {
		return 0, nil, errMalformedAt(p2)
	}
	raw = rest[:idx]
	raw = bytes.TrimRight(raw, "\r\n")
	return p2 + int64(idx) + int64(len("endstream")), &Stream{Dict: dict, Raw: raw}, nil
}

func intFromDict(dict Dict, key Name) (int64, error) {
	switch v := dict[key].(type) {
	case Integer:
		return int64(v), nil
	case Real:
		return int64(v), nil
	default:
		return 0, &MalformedFileError{Err: fmt.Errorf("%s is not a direct integer", key)}
	}
}

func (c *ParseCtx) parseDict(pos int64) (int64, Dict, error) {
	pos, err := c.expect(pos, "<<")
	if err != nil {
		return pos, nil, err
	}

	dict := make(Dict)
	for {
		pos, err = c.skipWhiteSpace(pos)
		if err != nil {
			return 0, nil, err
		}

		var key Name
		p2, key, nameErr := c.parseName(pos)
		if nameErr != nil {
			break
		}
		pos = p2

		pos, err = c.skipWhiteSpace(pos)
		if err != nil {
			return 0, nil, err
		}

		var val Object
		pos, val, err = c.parseObject(pos)
		if err != nil {
			return 0, nil, err
		}
		if _, dup := dict[key]; dup {
			return 0, nil, &MalformedFileError{Err: fmt.Errorf("%w: %s", ErrDuplicateKey, key), Pos: pos}
		}
		dict[key] = val
	}

	pos, err = c.skipWhiteSpace(pos)
	if err != nil {
		return 0, nil, err
	}
	pos, err = c.expect(pos, ">>")
	if err != nil {
		return 0, nil, err
	}
	return pos, dict, nil
}

// parseObject dispatches on the next byte to the appropriate primitive
// parser, per PDF 32000-1:2008's object lexical grammar.
func (c *ParseCtx) parseObject(pos int64) (int64, Object, error) {
	pos, err := c.skipWhiteSpace(pos)
	if err != nil {
		return 0, nil, err
	}

	head, err := c.Bytes(pos, pos+2, true)
	if err != nil {
		return 0, nil, err
	}
	if len(head) == 0 {
		return pos, nil, errMalformedAt(pos)
	}

	switch {
	case bytes.Equal(head, []byte("tr")), bytes.Equal(head, []byte("fa")):
		p2, b, err := c.parseBool(pos)
		return p2, b, err
	case bytes.HasPrefix(head, []byte("nu")):
		p2, err := c.parseNull(pos)
		return p2, Null{}, err
	case head[0] == '/':
		p2, n, err := c.parseName(pos)
		return p2, n, err
	case bytes.Equal(head, []byte("<<")):
		return c.parseDictOrStream(pos)
	case head[0] == '<':
		return c.parseHexString(pos)
	case head[0] == '(':
		return c.parseLiteralString(pos)
	case head[0] == '[':
		return c.parseArray(pos)
	case head[0] >= '0' && head[0] <= '9', head[0] == '+', head[0] == '-', head[0] == '.':
		return c.parseNumericOrReference(pos)
	}
	return pos, nil, errMalformedAt(pos)
}

// ParseObject parses a single PDF object starting at pos and returns the
// position just past it.
func (c *ParseCtx) ParseObject(pos int64) (int64, Object, error) {
	return c.parseObject(pos)
}
