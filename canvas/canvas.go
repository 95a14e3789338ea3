// Package canvas defines the drawing-collaborator contract the content
// interpreter draws against, and provides two implementations: a raster
// backend built on golang.org/x/image/vector, and a scalable SVG backend
// built on plain string templating.
package canvas

import (
	"inkwell.dev/pdf/content"
)

// LineCap mirrors the PDF line cap styles (PDF 32000-1:2008 §8.4.3.3).
type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin mirrors the PDF line join styles.
type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// RGBA is a straight (non-premultiplied) color with an opacity component,
// each in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Brush describes how draw_path should paint the path currently
// accumulated by the content interpreter.
type Brush struct {
	EnableFill   bool
	EnableStroke bool
	FillColor    RGBA
	StrokeColor  RGBA
	StrokeWidth  float64
	LineCap      LineCap
	LineJoin     LineJoin
	MiterLimit   float64
}

// Canvas is the external collaborator the content interpreter's Handler
// implementations draw onto.
type Canvas interface {
	// DrawPath rasterizes or emits path, painted per brush. evenOdd selects
	// the even-odd fill rule instead of the default nonzero winding rule.
	DrawPath(path *content.PathBuilder, brush Brush, evenOdd bool)

	// DrawPixel paints a single opaque device-space pixel, used by the
	// shading renderer.
	DrawPixel(x, y int, c RGBA)

	// PushClipPath intersects the current clip region with path.
	PushClipPath(path *content.PathBuilder, evenOdd bool)
	// PopClipPaths removes the n most recently pushed clip regions.
	PopClipPaths(n int)

	// IsRaster reports whether this canvas rasterizes (vs. emitting vector
	// output).
	IsRaster() bool
	// RasterRes is the canvas's device-pixel-per-user-space-unit scale.
	RasterRes() float64

	// WriteFile serializes the canvas's accumulated drawing to path.
	WriteFile(path string) error
}
