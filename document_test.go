package pdf

import (
	"fmt"
	"strings"
	"testing"
)

// buildMinimalPDF assembles a tiny single-generation PDF file with a
// classic (non-cross-reference-stream) xref table, computing every offset
// from the actual bytes written so the test stays correct if the object
// bodies change.
func buildMinimalPDF() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.7\n")

	offsets := make([]int, 3) // index 0 unused (object 0 is always free)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")

	xrefPos := b.Len()
	b.WriteString("xref\n")
	b.WriteString("0 3\n")
	b.WriteString("0000000000 65535 f \n")
	fmt.Fprintf(&b, "%010d 00000 n \n", offsets[1])
	fmt.Fprintf(&b, "%010d 00000 n \n", offsets[2])
	b.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF", xrefPos)

	return []byte(b.String())
}

func TestOpenAndCatalog(t *testing.T) {
	data := buildMinimalPDF()

	doc, err := Open(data, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.Version() != "1.7" {
		t.Fatalf("got version %q, want 1.7", doc.Version())
	}

	cat, err := doc.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if cat.Pages != (Reference{Number: 2, Generation: 0}) {
		t.Fatalf("got Pages=%v", cat.Pages)
	}

	pagesObj, err := doc.Get(cat.Pages)
	if err != nil {
		t.Fatalf("Get(Pages): %v", err)
	}
	pagesDict, ok := pagesObj.(Dict)
	if !ok {
		t.Fatalf("expected a Dict, got %T", pagesObj)
	}
	count, err := GetInteger(doc, pagesDict["Count"])
	if err != nil || count != 0 {
		t.Fatalf("got Count=%v, err=%v", count, err)
	}
}

func TestOpenRejectsBadHeader(t *testing.T) {
	if _, err := Open([]byte("not a pdf file"), nil); err == nil {
		t.Fatalf("expected an error for a missing header")
	}
}

func TestXRefGenerationMismatch(t *testing.T) {
	data := buildMinimalPDF()
	doc, err := Open(data, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = doc.Get(Reference{Number: 1, Generation: 7})
	if err == nil {
		t.Fatalf("expected a generation mismatch error")
	}
}

func TestXRefInvalidReference(t *testing.T) {
	data := buildMinimalPDF()
	doc, err := Open(data, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = doc.Get(Reference{Number: 99, Generation: 0})
	if err == nil {
		t.Fatalf("expected an invalid reference error")
	}
}
