package pdf

import "fmt"

// xrefSubsection is one "start count" block of a classic cross-reference
// table. Individual 20-byte entries are not parsed until looked up — most
// PDF files have many more object numbers declared than a single viewer
// session ever resolves, so eagerly parsing every entry would do a lot of
// wasted work.
type xrefSubsection struct {
	start      uint32
	count      uint32
	fileOffset int64 // offset of this subsection's first 20-byte entry
}

// XRefTable is the parsed (but lazily realized) classic cross-reference
// table of a PDF file.
type XRefTable struct {
	ctx         *ParseCtx
	subsections []xrefSubsection
}

// xrefEntryLen is the fixed width of a classic xref entry: a 10-digit
// offset, a space, a 5-digit generation, a space, and "n" or "f", followed
// by a 2-byte EOL.
const xrefEntryLen = 20

// Lookup resolves ref.Number within the table and returns the byte offset
// of the corresponding indirect object. ErrInvalidXRefReference is returned
// if no subsection covers ref.Number or the entry is marked free;
// ErrXRefGenerationMismatch if a subsection covers the number but records a
// different generation.
func (x *XRefTable) Lookup(ref Reference) (int64, error) {
	for _, sub := range x.subsections {
		if ref.Number < sub.start || ref.Number >= sub.start+sub.count {
			continue
		}

		idx := ref.Number - sub.start
		entryPos := sub.fileOffset + int64(idx)*xrefEntryLen
		buf, err := x.ctx.Bytes(entryPos, entryPos+xrefEntryLen, false)
		if err != nil {
			return 0, Wrap(err, "XRefTable.Lookup")
		}

		offset, gen, free, err := parseXRefEntry(buf)
		if err != nil {
			return 0, err
		}
		if free {
			return 0, &MalformedFileError{Err: fmt.Errorf("%w: object %d is free", ErrInvalidXRefReference, ref.Number)}
		}
		if gen != ref.Generation {
			return 0, &MalformedFileError{Err: fmt.Errorf("%w: object %d has generation %d, wanted %d", ErrXRefGenerationMismatch, ref.Number, gen, ref.Generation)}
		}
		return offset, nil
	}
	return 0, &MalformedFileError{Err: fmt.Errorf("%w: object %d is not in any xref subsection", ErrInvalidXRefReference, ref.Number)}
}

func parseXRefEntry(buf []byte) (offset int64, gen uint16, free bool, err error) {
	if len(buf) < 18 {
		return 0, 0, false, &MalformedFileError{Err: fmt.Errorf("truncated xref entry")}
	}
	var off, g int64
	for _, b := range buf[0:10] {
		if b < '0' || b > '9' {
			return 0, 0, false, &MalformedFileError{Err: fmt.Errorf("invalid offset digit in xref entry")}
		}
		off = off*10 + int64(b-'0')
	}
	for _, b := range buf[11:16] {
		if b < '0' || b > '9' {
			return 0, 0, false, &MalformedFileError{Err: fmt.Errorf("invalid generation digit in xref entry")}
		}
		g = g*10 + int64(b-'0')
	}
	switch buf[17] {
	case 'n':
		free = false
	case 'f':
		free = true
	default:
		return 0, 0, false, &MalformedFileError{Err: fmt.Errorf("invalid xref entry type byte %q", buf[17])}
	}
	return off, uint16(g), free, nil
}

// parseXRefSection parses a classic "xref" keyword section starting at pos:
// the keyword itself, then a sequence of "start count" subsection headers,
// each followed by count 20-byte entries (whose contents are not actually
// read here, only located). It returns the position of the following
// "trailer" keyword.
func parseXRefSection(c *ParseCtx, pos int64) (int64, *XRefTable, error) {
	pos, err := c.expect(pos, "xref")
	if err != nil {
		return pos, nil, Wrap(err, "parseXRefSection")
	}
	pos, err = c.expectEOL(pos)
	if err != nil {
		return pos, nil, Wrap(err, "parseXRefSection")
	}

	table := &XRefTable{ctx: c}
	for {
		pos, err = c.skipWhiteSpace(pos)
		if err != nil {
			return 0, nil, err
		}

		var start, count int64
		p2, start, intErr := c.expectInteger(pos)
		if intErr != nil {
			break
		}
		pos = p2

		pos, err = c.expect(pos, " ")
		if err != nil {
			return 0, nil, err
		}

		pos, count, err = c.expectInteger(pos)
		if err != nil {
			return 0, nil, err
		}

		pos, err = c.expectEOL(pos)
		if err != nil {
			return 0, nil, err
		}

		if start < 0 || count < 0 {
			return 0, nil, &MalformedFileError{Err: fmt.Errorf("negative xref subsection bounds")}
		}
		table.subsections = append(table.subsections, xrefSubsection{
			start:      uint32(start),
			count:      uint32(count),
			fileOffset: pos,
		})
		pos += xrefEntryLen * count
	}

	return pos, table, nil
}

func (c *ParseCtx) parseTrailer(pos int64) (int64, Dict, error) {
	pos, err := c.expect(pos, "trailer")
	if err != nil {
		return pos, nil, err
	}
	pos, err = c.skipWhiteSpace(pos)
	if err != nil {
		return 0, nil, err
	}
	pos, dict, err := c.parseDict(pos)
	if err != nil {
		return 0, nil, err
	}
	return pos, dict, nil
}
