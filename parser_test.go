package pdf

import (
	"errors"
	"strings"
	"testing"
)

func parseOne(t *testing.T, s string) Object {
	t.Helper()
	c := NewParseCtx([]byte(s))
	_, obj, err := c.ParseObject(0)
	if err != nil {
		t.Fatalf("ParseObject(%q): %v", s, err)
	}
	return obj
}

func TestParseInteger(t *testing.T) {
	if obj := parseOne(t, "123"); obj != Integer(123) {
		t.Fatalf("got %#v", obj)
	}
	if obj := parseOne(t, "-17"); obj != Integer(-17) {
		t.Fatalf("got %#v", obj)
	}
}

func TestParseReal(t *testing.T) {
	if obj := parseOne(t, "3.14"); obj != Real(3.14) {
		t.Fatalf("got %#v", obj)
	}
}

func TestParseIntegerOverflowIsNumberLimit(t *testing.T) {
	c := NewParseCtx([]byte("2147483648"))
	_, _, err := c.ParseObject(0)
	if !errors.Is(err, ErrNumberLimit) {
		t.Fatalf("got %v, want ErrNumberLimit", err)
	}
}

func TestParseRealClampsToLimit(t *testing.T) {
	// A 60-digit integer part comfortably exceeds realLimit (~3.403e38);
	// PDF's number grammar has no exponential notation, so clamping has to
	// be tested with a literal digit run rather than scientific notation.
	huge := strings.Repeat("9", 60) + ".0"
	if obj := parseOne(t, huge); obj != Real(realLimit) {
		t.Fatalf("got %#v, want Real(%v)", obj, realLimit)
	}
	if obj := parseOne(t, "-"+huge); obj != Real(-realLimit) {
		t.Fatalf("got %#v, want Real(%v)", obj, -realLimit)
	}
}

func TestParseReference(t *testing.T) {
	got := parseOne(t, "12 0 R")
	want := Reference{Number: 12, Generation: 0}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseIntegerNotReference(t *testing.T) {
	// "12 0" with no trailing R is just the Integer 12; the rest is left
	// unconsumed for the caller (e.g. an array) to parse separately.
	c := NewParseCtx([]byte("12 0 X"))
	pos, obj, err := c.ParseObject(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj != Integer(12) {
		t.Fatalf("got %#v", obj)
	}
	if pos != 2 {
		t.Fatalf("expected the cursor to stop right after \"12\", got pos=%d", pos)
	}
}

func TestParseName(t *testing.T) {
	if obj := parseOne(t, "/Type"); obj != Name("Type") {
		t.Fatalf("got %#v", obj)
	}
}

func TestParseNameHexEscape(t *testing.T) {
	if obj := parseOne(t, "/A#42"); obj != Name("AB") {
		t.Fatalf("got %#v", obj)
	}
}

func TestParseBool(t *testing.T) {
	if parseOne(t, "true") != Boolean(true) {
		t.Fatalf("expected true")
	}
	if parseOne(t, "false") != Boolean(false) {
		t.Fatalf("expected false")
	}
}

func TestParseLiteralString(t *testing.T) {
	got := parseOne(t, `(Hello (world)\n)`)
	want := String("Hello (world)\n")
	if string(got.(String)) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseHexString(t *testing.T) {
	got := parseOne(t, "<48656C6C6F>")
	if string(got.(String)) != "Hello" {
		t.Fatalf("got %q", got)
	}
}

func TestParseArray(t *testing.T) {
	got := parseOne(t, "[1 2 /Name]").(Array)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	if got[0] != Integer(1) || got[1] != Integer(2) || got[2] != Name("Name") {
		t.Fatalf("got %#v", got)
	}
}

func TestParseDict(t *testing.T) {
	got := parseOne(t, "<< /Type /Catalog /Count 3 >>").(Dict)
	if got["Type"] != Name("Catalog") || got["Count"] != Integer(3) {
		t.Fatalf("got %#v", got)
	}
}

func TestParseStream(t *testing.T) {
	src := "<< /Length 5 >>\nstream\nhello\nendstream"
	got := parseOne(t, src).(*Stream)
	if string(got.Raw) != "hello" {
		t.Fatalf("got %q", got.Raw)
	}
}

func TestParseStreamRecoversMissingLength(t *testing.T) {
	src := "<< /Foo /Bar >>\nstream\nhello\nendstream"
	got := parseOne(t, src).(*Stream)
	if string(got.Raw) != "hello" {
		t.Fatalf("got %q", got.Raw)
	}
}
