package pdf

import (
	"bytes"
	"fmt"
)

// ReaderOptions configures how a Document is opened.
type ReaderOptions struct {
	// ArenaBlockSize is accepted but not read by Open: parsed objects are
	// ordinary Go values, and a Document does not allocate from an arena.
	ArenaBlockSize int
}

// Document is a parsed, read-only PDF file: the cross-reference table, the
// trailer dictionary, and the monotonic object cache that backs Resolve.
type Document struct {
	ctx     *ParseCtx
	version string

	xref    *XRefTable
	trailer Dict
	cache   *objectCache
}

// Open parses a PDF file's header, locates and parses its cross-reference
// table and trailer, and returns a ready-to-use Document. It does not walk
// the page tree or validate the catalog; those happen lazily as callers
// resolve objects.
func Open(data []byte, opt *ReaderOptions) (*Document, error) {
	if opt == nil {
		opt = &ReaderOptions{}
	}

	ctx := NewParseCtx(data)

	version, err := checkHeader(ctx)
	if err != nil {
		return nil, Wrap(err, "Open")
	}

	startXRefPos, err := findStartXRefPos(ctx)
	if err != nil {
		return nil, Wrap(err, "Open")
	}

	_, xrefPos, err := readStartXRef(ctx, startXRefPos)
	if err != nil {
		return nil, Wrap(err, "Open")
	}

	pos, xref, err := parseXRefSection(ctx, xrefPos)
	if err != nil {
		return nil, Wrap(err, "Open")
	}

	pos, err = ctx.skipWhiteSpace(pos)
	if err != nil {
		return nil, Wrap(err, "Open")
	}
	_, trailer, err := ctx.parseTrailer(pos)
	if err != nil {
		return nil, Wrap(err, "Open")
	}

	return &Document{
		ctx:     ctx,
		version: version,
		xref:    xref,
		trailer: trailer,
		cache:   newObjectCache(),
	}, nil
}

func checkHeader(c *ParseCtx) (string, error) {
	pos, err := c.expect(0, "%PDF-1.")
	if err != nil {
		return "", &MalformedFileError{Err: fmt.Errorf("missing %%PDF-1.x header")}
	}
	_, digit, err := c.expectInteger(pos)
	if err != nil {
		return "", &MalformedFileError{Err: fmt.Errorf("malformed header version")}
	}
	if digit < 0 || digit > 7 {
		return "", &VersionError{Operation: "reading this file", Earliest: "1.0"}
	}
	return fmt.Sprintf("1.%d", digit), nil
}

func findStartXRefPos(c *ParseCtx) (int64, error) {
	size := c.Len()
	for windowSize := int64(32); ; windowSize *= 2 {
		w := windowSize
		if w > size {
			w = size
		}
		buf, err := c.Bytes(size-w, size, false)
		if err != nil {
			return 0, err
		}
		if idx := bytes.LastIndex(buf, []byte("startxref")); idx >= 0 {
			return size - w + int64(idx), nil
		}
		if w == size {
			return 0, &MalformedFileError{Err: fmt.Errorf("no startxref keyword found")}
		}
	}
}

func readStartXRef(c *ParseCtx, pos int64) (int64, int64, error) {
	pos, err := c.expect(pos, "startxref")
	if err != nil {
		return 0, 0, err
	}
	pos, err = c.skipWhiteSpace(pos)
	if err != nil {
		return 0, 0, err
	}
	pos, val, err := c.expectInteger(pos)
	if err != nil {
		return 0, 0, err
	}
	return pos, val, nil
}

// Version returns the PDF version declared in the file header, e.g. "1.7".
func (d *Document) Version() string {
	return d.version
}

// Trailer returns the file's trailer dictionary.
func (d *Document) Trailer() Dict {
	return d.trailer
}

// Get implements Getter: it looks up ref in the cross-reference table,
// parses the indirect object at the resulting file offset, and caches the
// result so repeated resolution of the same reference never re-parses.
func (d *Document) Get(ref Reference) (Object, error) {
	if obj, ok := d.cache.Get(ref); ok {
		return obj, nil
	}

	offset, err := d.xref.Lookup(ref)
	if err != nil {
		return nil, Wrap(err, "Document.Get")
	}

	obj, err := d.parseIndirectObjectAt(offset, ref)
	if err != nil {
		return nil, Wrap(err, "Document.Get")
	}

	d.cache.Put(ref, obj)
	return obj, nil
}

// parseIndirectObjectAt parses the "num gen obj ... endobj" wrapper at the
// given file offset and returns the wrapped object.
func (d *Document) parseIndirectObjectAt(offset int64, want Reference) (Object, error) {
	c := d.ctx

	pos, num, err := c.expectInteger(offset)
	if err != nil {
		return nil, err
	}
	pos, err = c.skipWhiteSpace(pos)
	if err != nil {
		return nil, err
	}
	pos, gen, err := c.expectInteger(pos)
	if err != nil {
		return nil, err
	}
	pos, err = c.skipWhiteSpace(pos)
	if err != nil {
		return nil, err
	}
	pos, err = c.expect(pos, "obj")
	if err != nil {
		return nil, err
	}

	if uint32(num) != want.Number || uint16(gen) != want.Generation {
		return nil, &MalformedFileError{Err: fmt.Errorf("object at offset %d is %d %d obj, wanted %s", offset, num, gen, want)}
	}

	_, obj, err := c.parseObject(pos)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Catalog resolves the trailer's /Root entry and deserializes it into a
// Catalog struct via the schema layer.
func (d *Document) Catalog() (*Catalog, error) {
	var cat Catalog
	if err := Decode(d, d.trailer["Root"], &cat); err != nil {
		return nil, Wrap(err, "Document.Catalog")
	}
	return &cat, nil
}

// Info resolves the trailer's /Info entry, if present.
func (d *Document) Info() (*Info, error) {
	if d.trailer["Info"] == nil {
		return nil, nil
	}
	var info Info
	if err := Decode(d, d.trailer["Info"], &info); err != nil {
		return nil, Wrap(err, "Document.Info")
	}
	return &info, nil
}

// DecodeStream runs the stream's filter pipeline (per dict's /Filter entry)
// and returns the decoded bytes, caching the result on the Stream value.
func (d *Document) DecodeStream(s *Stream) ([]byte, error) {
	return DecodeStream(d, s)
}
