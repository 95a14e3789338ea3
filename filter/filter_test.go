package filter

import (
	"bytes"
	"testing"
)

func TestASCIIHexDecodeValid(t *testing.T) {
	got, err := ASCIIHexDecode([]byte("48656c6c6f>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte("Hello")) {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

func TestASCIIHexDecodeWhitespace(t *testing.T) {
	got, err := ASCIIHexDecode([]byte("48 65 6c\n6c 6f>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte("Hello")) {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

func TestASCIIHexDecodeOddDigit(t *testing.T) {
	got, err := ASCIIHexDecode([]byte("4>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte{0x40}) {
		t.Fatalf("got %x, want 40", got)
	}
}

func TestASCIIHexDecodeInvalidChar(t *testing.T) {
	if _, err := ASCIIHexDecode([]byte("4g>")); err == nil {
		t.Fatalf("expected an error for an invalid hex digit")
	}
}

func TestASCIIHexDecodeMissingTerminator(t *testing.T) {
	if _, err := ASCIIHexDecode([]byte("48656c6c6f")); err == nil {
		t.Fatalf("expected an error for a missing terminator")
	}
}

func TestDecodeNoFilters(t *testing.T) {
	got, err := Decode([]byte("abc"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("got %q, want %q", got, "abc")
	}
}

func TestDecodeUnsupportedFilter(t *testing.T) {
	_, err := Decode([]byte("abc"), []string{"LZWDecode"})
	if err == nil {
		t.Fatalf("expected an error for an unsupported filter")
	}
	var unsupported *ErrUnsupportedFilter
	if !asUnsupported(err, &unsupported) {
		t.Fatalf("expected an ErrUnsupportedFilter, got %v", err)
	}
}

func asUnsupported(err error, target **ErrUnsupportedFilter) bool {
	if e, ok := err.(*ErrUnsupportedFilter); ok {
		*target = e
		return true
	}
	return false
}
