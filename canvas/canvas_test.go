package canvas

import (
	"os"
	"strings"
	"testing"

	"inkwell.dev/pdf/content"
)

func square() *content.PathBuilder {
	p := &content.PathBuilder{}
	p.Rect(2, 2, 6, 6)
	return p
}

func TestRasterFillWritesFile(t *testing.T) {
	r := NewRaster(10, 10, RGBA{1, 1, 1, 1}, 1)
	r.DrawPath(square(), Brush{EnableFill: true, FillColor: RGBA{1, 0, 0, 1}}, false)

	f, err := os.CreateTemp(t.TempDir(), "raster-*.png")
	if err != nil {
		t.Fatal(err)
	}
	name := f.Name()
	f.Close()

	if err := r.WriteFile(name); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(name)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected a non-empty PNG file, err=%v", err)
	}
}

func TestRasterDrawPixel(t *testing.T) {
	r := NewRaster(4, 4, RGBA{0, 0, 0, 1}, 1)
	r.DrawPixel(1, 1, RGBA{1, 1, 1, 1})
	got := r.img.RGBAAt(1, r.height-1-1)
	if got.R != 255 {
		t.Fatalf("expected white pixel, got %+v", got)
	}
}

func TestRasterClipExcludesOutsidePixels(t *testing.T) {
	r := NewRaster(10, 10, RGBA{0, 0, 0, 1}, 1)
	clip := &content.PathBuilder{}
	clip.Rect(0, 0, 2, 2)
	r.PushClipPath(clip, false)
	r.DrawPath(square(), Brush{EnableFill: true, FillColor: RGBA{1, 1, 1, 1}}, false)

	// (5, 5) in device space is outside the clip rect but inside the
	// square; it should remain background-colored.
	got := r.img.RGBAAt(5, r.height-1-5)
	if got.R != 0 {
		t.Fatalf("expected pixel outside clip to stay black, got %+v", got)
	}
}

func TestSVGWriteFile(t *testing.T) {
	s := NewSVG(10, 10, RGBA{1, 1, 1, 1}, 1)
	s.DrawPath(square(), Brush{EnableFill: true, FillColor: RGBA{1, 0, 0, 1}}, false)

	name := t.TempDir() + "/out.svg"
	if err := s.WriteFile(name); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<svg") || !strings.Contains(string(data), "<path") {
		t.Fatalf("expected an <svg> document with a <path>, got %s", data)
	}
}

func TestSVGClipBalance(t *testing.T) {
	s := NewSVG(10, 10, RGBA{}, 1)
	clip := &content.PathBuilder{}
	clip.Rect(0, 0, 5, 5)
	s.PushClipPath(clip, false)
	s.PushClipPath(clip, true)
	s.PopClipPaths(2)
	if s.clipDepth != 0 {
		t.Fatalf("expected balanced clip depth, got %d", s.clipDepth)
	}
}

func TestHexRGBA(t *testing.T) {
	got := hexRGBA(RGBA{1, 0, 0, 1})
	if got != "#ff0000ff" {
		t.Fatalf("got %s, want #ff0000ff", got)
	}
}
