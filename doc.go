// Package pdf provides read-only access to PDF files: the object model, the
// byte-level parser, the cross-reference table, a resolver that follows
// indirect references, and a struct-tag driven schema layer for projecting
// dictionaries onto Go structs.
//
// Opening a file and walking its catalog looks like:
//
//	doc, err := pdf.Open(data, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog, err := doc.Catalog()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Every concrete object type implements the Object interface: Array,
// Boolean, Dict, Integer, Name, Null, Real, Reference, *Stream, String.
//
// Sibling packages implement the subsystems that sit on top of the object
// model: internal/arena (bump allocation), internal/deflate (RFC 1951
// decompression), filter (stream filter pipeline), content (content-stream
// interpretation), function, color, shading, canvas, and glyph.
package pdf
