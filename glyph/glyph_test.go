package glyph

import (
	"bytes"
	"testing"
)

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a font")))
	if err == nil {
		t.Fatalf("expected an error parsing non-font data")
	}
}

func TestLoadRejectsEmpty(t *testing.T) {
	_, err := Load(bytes.NewReader(nil))
	if err == nil {
		t.Fatalf("expected an error parsing empty input")
	}
}
