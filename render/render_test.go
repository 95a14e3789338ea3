package render

import (
	"testing"

	"inkwell.dev/pdf"
	"inkwell.dev/pdf/canvas"
	"inkwell.dev/pdf/content"
)

// fakeGetter is a minimal in-memory pdf.Getter for tests that don't need a
// full Document.
type fakeGetter map[pdf.Reference]pdf.Object

func (f fakeGetter) Get(ref pdf.Reference) (pdf.Object, error) {
	obj, ok := f[ref]
	if !ok {
		return nil, &pdf.MalformedFileError{Err: pdf.ErrInvalidXRefReference}
	}
	return obj, nil
}

// recordingCanvas stands in for canvas.Canvas, capturing draw calls instead
// of actually rendering.
type recordingCanvas struct {
	paths  []canvas.Brush
	pixels map[[2]int]canvas.RGBA
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{pixels: make(map[[2]int]canvas.RGBA)}
}

func (c *recordingCanvas) DrawPath(path *content.PathBuilder, brush canvas.Brush, evenOdd bool) {
	c.paths = append(c.paths, brush)
}
func (c *recordingCanvas) DrawPixel(x, y int, col canvas.RGBA) { c.pixels[[2]int{x, y}] = col }
func (c *recordingCanvas) PushClipPath(path *content.PathBuilder, evenOdd bool) {}
func (c *recordingCanvas) PopClipPaths(n int)                                  {}
func (c *recordingCanvas) IsRaster() bool                                      { return true }
func (c *recordingCanvas) RasterRes() float64                                  { return 1 }
func (c *recordingCanvas) WriteFile(path string) error                         { return nil }

func TestPaintPathResolvesDeviceColor(t *testing.T) {
	cv := newRecordingCanvas()
	rend := New(fakeGetter{}, cv, 10, 10)

	if err := rend.Interpreter().Run([]byte("1 0 0 rg 0 0 5 5 re f")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cv.paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(cv.paths))
	}
	got := cv.paths[0]
	if !got.EnableFill || got.FillColor.R != 1 || got.FillColor.G != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestPaintPathResolvesResourceColorSpace(t *testing.T) {
	cv := newRecordingCanvas()
	g := fakeGetter{}
	rend := New(g, cv, 10, 10)
	rend.Interpreter().PushResources(pdf.Dict{
		"ColorSpace": pdf.Dict{"CS0": pdf.Name("DeviceCMYK")},
	})

	if err := rend.Interpreter().Run([]byte("/CS0 cs 0 0 0 1 scn 0 0 5 5 re f")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cv.paths) != 1 || !cv.paths[0].EnableFill {
		t.Fatalf("got %+v", cv.paths)
	}
	// k=1 with c=m=y=0 is pure black.
	if cv.paths[0].FillColor.R != 0 || cv.paths[0].FillColor.G != 0 || cv.paths[0].FillColor.B != 0 {
		t.Fatalf("got %+v, want black", cv.paths[0].FillColor)
	}
}

func TestXObjectRunsNestedFormResources(t *testing.T) {
	cv := newRecordingCanvas()
	formRef := pdf.Reference{Number: 1}
	g := fakeGetter{
		formRef: &pdf.Stream{
			Dict: pdf.Dict{
				"Subtype":   pdf.Name("Form"),
				"Resources": pdf.Dict{"ColorSpace": pdf.Dict{"CS1": pdf.Name("DeviceGray")}},
			},
			Raw: []byte("/CS1 cs 0.5 scn 0 0 2 2 re f"),
		},
	}
	rend := New(g, cv, 10, 10)
	rend.Interpreter().PushResources(pdf.Dict{
		"XObject": pdf.Dict{"Fm0": formRef},
	})

	if err := rend.Interpreter().Run([]byte("/Fm0 Do")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cv.paths) != 1 || cv.paths[0].FillColor.R != 0.5 {
		t.Fatalf("got %+v", cv.paths)
	}
}

func TestExtGStateSetsFillAlpha(t *testing.T) {
	cv := newRecordingCanvas()
	g := fakeGetter{}
	rend := New(g, cv, 10, 10)
	rend.Interpreter().PushResources(pdf.Dict{
		"ExtGState": pdf.Dict{"GS0": pdf.Dict{"ca": pdf.Real(0.25)}},
	})

	if err := rend.Interpreter().Run([]byte("/GS0 gs 1 0 0 rg 0 0 5 5 re f")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cv.paths) != 1 || cv.paths[0].FillColor.A != 0.25 {
		t.Fatalf("got %+v, want alpha 0.25", cv.paths)
	}
}

func TestExtGStateIndirectResolvesThroughGetter(t *testing.T) {
	cv := newRecordingCanvas()
	gsRef := pdf.Reference{Number: 7}
	g := fakeGetter{
		gsRef: pdf.Dict{"CA": pdf.Real(0.5)},
	}
	rend := New(g, cv, 10, 10)
	rend.Interpreter().PushResources(pdf.Dict{
		"ExtGState": pdf.Dict{"GS0": gsRef},
	})

	if err := rend.Interpreter().Run([]byte("/GS0 gs 0 0 0 RG 0 0 5 5 re S")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cv.paths) != 1 || cv.paths[0].StrokeColor.A != 0.5 {
		t.Fatalf("got %+v, want stroke alpha 0.5", cv.paths)
	}
}

func TestColorSpaceUnresolvableFallsBackToNoFill(t *testing.T) {
	cv := newRecordingCanvas()
	rend := New(fakeGetter{}, cv, 10, 10)
	rend.Interpreter().Run([]byte("/NoSuchSpace cs 1 scn 0 0 2 2 re f"))
	if len(cv.paths) != 1 || cv.paths[0].EnableFill {
		t.Fatalf("expected fill disabled for an unresolvable color space, got %+v", cv.paths)
	}
}
