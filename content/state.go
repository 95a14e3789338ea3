package content

import (
	"seehuhn.de/go/geom/matrix"

	"inkwell.dev/pdf"
)

// Point is a single path-construction coordinate in the current user space
// (i.e. before the CTM in effect at construction time is applied).
type Point struct {
	X, Y float64
}

// Segment is one path-construction command accumulated by a PathBuilder.
type Segment struct {
	Op     byte // 'm', 'l', 'c', 'h'
	Points []Point
}

// PathBuilder accumulates the path-construction operators (m, l, c, v, y, h,
// re) between the operator that starts a new path and the painting operator
// (S, s, f, F, f*, B, B*, b, b*, n) that consumes it.
type PathBuilder struct {
	Segments []Segment
	cur      Point
	start    Point
}

func (p *PathBuilder) MoveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: 'm', Points: []Point{{x, y}}})
	p.cur = Point{x, y}
	p.start = p.cur
}

func (p *PathBuilder) LineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: 'l', Points: []Point{{x, y}}})
	p.cur = Point{x, y}
}

func (p *PathBuilder) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	p.Segments = append(p.Segments, Segment{Op: 'c', Points: []Point{{x1, y1}, {x2, y2}, {x3, y3}}})
	p.cur = Point{x3, y3}
}

// CurveToV handles the "v" operator: the first control point is the current
// point.
func (p *PathBuilder) CurveToV(x2, y2, x3, y3 float64) {
	p.CurveTo(p.cur.X, p.cur.Y, x2, y2, x3, y3)
}

// CurveToY handles the "y" operator: the second control point is the
// endpoint.
func (p *PathBuilder) CurveToY(x1, y1, x3, y3 float64) {
	p.CurveTo(x1, y1, x3, y3, x3, y3)
}

func (p *PathBuilder) ClosePath() {
	p.Segments = append(p.Segments, Segment{Op: 'h'})
	p.cur = p.start
}

func (p *PathBuilder) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.ClosePath()
}

func (p *PathBuilder) Reset() {
	p.Segments = nil
	p.cur = Point{}
	p.start = Point{}
}

func (p *PathBuilder) Empty() bool {
	return len(p.Segments) == 0
}

// ClipIntent records a pending W/W* clip-path request until the following
// painting operator ends the path. The interpreter then clears it: no clip
// region is established, and a pending W* only makes that one painting call
// use the even-odd rule.
type ClipIntent struct {
	Pending  bool
	EvenOdd  bool
}

// TextState holds the Tc/Tw/Tz/TL/Tf/Tr/Ts parameters and the text/line
// matrices maintained between BT and ET.
type TextState struct {
	CharSpace   float64
	WordSpace   float64
	HScale      float64 // Tz, as a fraction (100 -> 1.0)
	Leading     float64
	Font        pdf.Name
	FontSize    float64
	RenderMode  int
	Rise        float64
	Tm          matrix.Matrix
	Tlm         matrix.Matrix
	InTextBlock bool
}

func newTextState() TextState {
	return TextState{HScale: 1, Tm: matrix.Identity, Tlm: matrix.Identity}
}

// ColorState is the fill or stroke color: a color-space name plus the
// component values last set via SC/SCN/sc/scn or one of the gG/rg/RG/k/K
// shorthand operators.
type ColorState struct {
	Space      pdf.Name
	Components []float64
	Pattern    pdf.Name
}

// GraphicsState is the full state vector the PDF imaging model
// (PDF 32000-1:2008 §8.4) tracks across operators: everything q/Q push and
// pop as one unit.
type GraphicsState struct {
	CTM matrix.Matrix

	LineWidth  float64
	LineCap    int
	LineJoin   int
	MiterLimit float64
	DashArray  []float64
	DashPhase  float64
	RenderingIntent pdf.Name
	StrokeAdjustment bool

	Fill   ColorState
	Stroke ColorState

	Text TextState

	SoftMask pdf.Object
	Alpha    float64
	AlphaS   float64
}

func newGraphicsState() GraphicsState {
	return GraphicsState{
		CTM:        matrix.Identity,
		LineWidth:  1,
		MiterLimit: 10,
		Alpha:      1,
		AlphaS:     1,
		Fill:       ColorState{Space: "DeviceGray", Components: []float64{0}},
		Stroke:     ColorState{Space: "DeviceGray", Components: []float64{0}},
		Text:       newTextState(),
	}
}

func (g GraphicsState) clone() GraphicsState {
	g2 := g
	g2.DashArray = append([]float64(nil), g.DashArray...)
	g2.Fill.Components = append([]float64(nil), g.Fill.Components...)
	g2.Stroke.Components = append([]float64(nil), g.Stroke.Components...)
	return g2
}
