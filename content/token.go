// Package content implements the content-stream tokenizer and the
// graphics-state operator machine that drives page rendering: the sequence
// of (operands, operator) instructions that make up a PDF page's appearance
// stream.
package content

import (
	"fmt"

	"inkwell.dev/pdf"
)

// Instruction is one (operands, operator) tuple parsed from a content
// stream.
type Instruction struct {
	Operator string
	Operands []pdf.Object
}

// Tokenizer walks a content stream, alternating between greedily parsing
// objects into an operand buffer and, on the first parse failure, rewinding
// to the last successful whitespace boundary to read an operator token
// instead.
type Tokenizer struct {
	ctx      *pdf.ParseCtx
	pos      int64
	operands []pdf.Object
}

// NewTokenizer creates a Tokenizer over buf.
func NewTokenizer(buf []byte) *Tokenizer {
	return &Tokenizer{ctx: pdf.NewParseCtx(buf)}
}

// Next returns the next instruction, or io.EOF-shaped (nil, nil) at the end
// of the stream.
func (t *Tokenizer) Next() (*Instruction, error) {
	for {
		pos, err := skipWhiteSpace(t.ctx, t.pos)
		if err != nil {
			return nil, err
		}
		if pos >= t.ctx.Len() {
			if len(t.operands) > 0 {
				// operands with no trailing operator: malformed, but we
				// surface what we have rather than silently dropping it.
				return nil, fmt.Errorf("content: %d trailing operand(s) with no operator", len(t.operands))
			}
			return nil, nil
		}

		p2, obj, parseErr := t.ctx.ParseObject(pos)
		if parseErr == nil {
			t.pos = p2
			t.operands = append(t.operands, obj)
			continue
		}

		// Not an object: read an operator token instead.
		opEnd, err := readOperatorToken(t.ctx, pos)
		if err != nil {
			return nil, err
		}
		if opEnd == pos {
			return nil, fmt.Errorf("content: unrecognized byte at offset %d", pos)
		}
		raw, err := t.ctx.Bytes(pos, opEnd, true)
		if err != nil {
			return nil, err
		}
		op := string(raw)
		t.pos = opEnd

		inst := &Instruction{Operator: op, Operands: t.operands}
		t.operands = nil
		return inst, nil
	}
}

func skipWhiteSpace(c *pdf.ParseCtx, pos int64) (int64, error) {
	for {
		b, err := c.Bytes(pos, pos+1, true)
		if err != nil {
			return 0, err
		}
		if len(b) == 0 {
			return pos, nil
		}
		switch b[0] {
		case 0, 9, 10, 12, 13, 32:
			pos++
		case '%':
			for {
				b, err := c.Bytes(pos, pos+1, true)
				if err != nil {
					return 0, err
				}
				if len(b) == 0 || b[0] == '\r' || b[0] == '\n' {
					break
				}
				pos++
			}
		default:
			return pos, nil
		}
	}
}

func isDelimiterByte(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isSpaceByte(b byte) bool {
	switch b {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

// readOperatorToken consumes a run of "regular" bytes (PDF 32000-1 Annex D):
// anything that is neither whitespace nor a delimiter. The content
// operators are all 1-3 characters from this alphabet, optionally ending in
// '*' (e.g. "f*", "W*", "T*").
func readOperatorToken(c *pdf.ParseCtx, pos int64) (int64, error) {
	start := pos
	for {
		b, err := c.Bytes(pos, pos+1, true)
		if err != nil {
			return 0, err
		}
		if len(b) == 0 || isSpaceByte(b[0]) || isDelimiterByte(b[0]) {
			return pos, nil
		}
		if pos == start && (b[0] == '\'' || b[0] == '"') {
			return pos + 1, nil
		}
		pos++
	}
}
