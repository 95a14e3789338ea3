// Package render wires the content interpreter, color resolver, shading
// evaluator and a canvas backend together into the end-to-end pipeline
// from a decoded content stream to painted output: bytes -> tokenizer ->
// interpreter -> (color space lookups, shading fills) -> canvas.
package render

import (
	"bytes"
	"fmt"

	"inkwell.dev/pdf"
	"inkwell.dev/pdf/canvas"
	"inkwell.dev/pdf/color"
	"inkwell.dev/pdf/content"
	"inkwell.dev/pdf/shading"
)

// Renderer implements content.Handler, translating the interpreter's
// drawing calls into canvas operations. Color spaces and shadings named by
// resource name are resolved against whatever /Resources scope is active
// on its Interpreter.
type Renderer struct {
	r             pdf.Getter
	in            *content.Interpreter
	cv            canvas.Canvas
	width, height int
}

// New creates a Renderer painting onto cv, whose device pixel grid is
// width x height (used to bound shading fills; ignored by vector
// backends).
func New(r pdf.Getter, cv canvas.Canvas, width, height int) *Renderer {
	rend := &Renderer{r: r, cv: cv, width: width, height: height}
	rend.in = content.NewInterpreter(rend)
	rend.in.SetResolver(r)
	return rend
}

// Interpreter returns the interpreter driving this renderer, so a caller
// can Run content-stream bytes against it.
func (rend *Renderer) Interpreter() *content.Interpreter {
	return rend.in
}

// RunPage decodes page's content streams and resources and renders them
// onto cv. page is the page's own dictionary (already resolved, as
// returned by the page tree walk); width and height are the target
// device pixel grid.
func RunPage(r pdf.Getter, page pdf.Dict, cv canvas.Canvas, width, height int) error {
	rend := New(r, cv, width, height)

	res, err := pdf.GetDict(r, page["Resources"])
	if err != nil {
		return pdf.Wrap(err, "render: page /Resources")
	}
	rend.in.PushResources(res)
	defer rend.in.PopResources()

	data, err := loadContents(r, page["Contents"])
	if err != nil {
		return pdf.Wrap(err, "render: page /Contents")
	}
	return rend.in.Run(data)
}

// loadContents resolves a page's /Contents entry, which PDF 32000-1:2008
// §7.8.2 allows to be either a single stream or an array of streams
// concatenated with an intervening newline (so a token split across two
// streams isn't accidentally joined).
func loadContents(r pdf.Getter, obj pdf.Object) ([]byte, error) {
	resolved, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case nil, pdf.Null:
		return nil, nil
	case *pdf.Stream:
		return pdf.DecodeStream(r, v)
	case pdf.Array:
		var buf bytes.Buffer
		for i, item := range v {
			stream, err := pdf.GetStream(r, item)
			if err != nil {
				return nil, err
			}
			if stream == nil {
				continue
			}
			data, err := pdf.DecodeStream(r, stream)
			if err != nil {
				return nil, err
			}
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.Write(data)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("render: /Contents must be a stream or array of streams, got %T", resolved)
	}
}

// colorSpace resolves name as a color space: first as a built-in device
// family name (DeviceGray/DeviceRGB/DeviceCMYK and friends, which need no
// resource dictionary), then as a name into the active /ColorSpace
// resources.
func (rend *Renderer) colorSpace(name pdf.Name) (color.Space, error) {
	if sp, err := color.Resolve(rend.r, name); err == nil {
		return sp, nil
	}
	obj, ok := rend.in.Resource("ColorSpace", name)
	if !ok {
		return nil, fmt.Errorf("render: unresolvable color space %q", name)
	}
	return color.Resolve(rend.r, obj)
}

// resolveColor converts a content.ColorState to RGB, reporting false if
// its color space or component count can't be resolved.
func (rend *Renderer) resolveColor(cs content.ColorState) (color.RGB, bool) {
	if cs.Space == "" {
		return color.RGB{}, false
	}
	sp, err := rend.colorSpace(cs.Space)
	if err != nil {
		return color.RGB{}, false
	}
	if len(cs.Components) < sp.NumComponents() {
		return color.RGB{}, false
	}
	return sp.ToRGB(cs.Components), true
}

// toCanvasRGBA attaches alpha (an ExtGState /ca or /CA constant-alpha value,
// applied by the "gs" operator) to a resolved color.
func toCanvasRGBA(c color.RGB, alpha float64) canvas.RGBA {
	return canvas.RGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// PaintPath implements content.Handler.
func (rend *Renderer) PaintPath(gs *content.GraphicsState, path *content.PathBuilder, fill, stroke, evenOdd bool) {
	var brush canvas.Brush
	if fill {
		if rgb, ok := rend.resolveColor(gs.Fill); ok {
			brush.EnableFill = true
			brush.FillColor = toCanvasRGBA(rgb, gs.Alpha)
		}
	}
	if stroke {
		if rgb, ok := rend.resolveColor(gs.Stroke); ok {
			brush.EnableStroke = true
			brush.StrokeColor = toCanvasRGBA(rgb, gs.AlphaS)
			brush.StrokeWidth = gs.LineWidth
			brush.LineCap = canvas.LineCap(gs.LineCap)
			brush.LineJoin = canvas.LineJoin(gs.LineJoin)
			brush.MiterLimit = gs.MiterLimit
		}
	}
	rend.cv.DrawPath(path, brush, evenOdd)
}

// ShowText and ShowTextAdjusted are no-ops: turning glyph ids into outlines
// is the glyph package's ingestion job, not this renderer's, and nothing
// here owns a rasterizer for them.
func (rend *Renderer) ShowText(gs *content.GraphicsState, s pdf.String)               {}
func (rend *Renderer) ShowTextAdjusted(gs *content.GraphicsState, elements pdf.Array) {}

// InlineImage is a no-op: sample unpacking for the handful of inline
// image color spaces PDF 32000-1 §8.9.5.2 allows is out of scope here.
func (rend *Renderer) InlineImage(gs *content.GraphicsState, dict pdf.Dict, data []byte) {}

// XObject implements content.Handler, dispatching to Form XObjects (which
// recurse into this renderer) and skipping Image XObjects (which need a
// raster image-sample decode pipeline this package doesn't implement).
func (rend *Renderer) XObject(gs *content.GraphicsState, name pdf.Name) {
	obj, ok := rend.in.Resource("XObject", name)
	if !ok {
		return
	}
	stream, err := pdf.GetStream(rend.r, obj)
	if err != nil || stream == nil {
		return
	}
	subtype, _ := pdf.GetName(rend.r, stream.Dict["Subtype"])
	if subtype != "Form" {
		return
	}
	rend.runForm(stream)
}

func (rend *Renderer) runForm(stream *pdf.Stream) {
	data, err := pdf.DecodeStream(rend.r, stream)
	if err != nil {
		return
	}
	res, err := pdf.GetDict(rend.r, stream.Dict["Resources"])
	if err != nil {
		res = nil
	}
	rend.in.PushResources(res)
	defer rend.in.PopResources()
	_ = rend.in.Run(data)
}

// Shading implements content.Handler for the "sh" operator: it resolves
// the named shading and fills the canvas's device pixel grid, limited only
// by the shading's own /BBox. No W/W* clip path limits the fill: nothing in
// the interpreter or this renderer calls the canvas's PushClipPath.
func (rend *Renderer) Shading(gs *content.GraphicsState, name pdf.Name) {
	if !rend.cv.IsRaster() {
		return
	}
	obj, ok := rend.in.Resource("Shading", name)
	if !ok {
		return
	}
	sh, err := shading.Read(rend.r, obj)
	if err != nil {
		return
	}
	_ = shading.Sample(sh, gs.CTM, 0, 0, rend.width, rend.height, func(x, y int, c color.RGB) {
		rend.cv.DrawPixel(x, y, toCanvasRGBA(c, gs.Alpha))
	})
}
