// Package shading evaluates PDF shading dictionaries (Type 2 axial and
// Type 3 radial) against a device-space sample grid, producing RGB pixels.
package shading

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"inkwell.dev/pdf"
	"inkwell.dev/pdf/color"
	"inkwell.dev/pdf/function"
)

// Type is the dictionary's /ShadingType field. All seven PDF shading types
// are modeled so that an unsupported one produces a clear error rather than
// a silent misread; only Axial and Radial are evaluated.
type Type int

const (
	TypeFunctionBased   Type = 1
	TypeAxial           Type = 2
	TypeRadial          Type = 3
	TypeFreeFormGouraud Type = 4
	TypeLatticeGouraud  Type = 5
	TypeCoons           Type = 6
	TypeTensorProduct   Type = 7
)

// ErrUnsupportedShadingType is returned by Read for shading types other than
// Axial and Radial.
type ErrUnsupportedShadingType struct {
	Type Type
}

func (e *ErrUnsupportedShadingType) Error() string {
	return fmt.Sprintf("shading: unsupported /ShadingType %d", e.Type)
}

// Shading is an evaluatable shading: given a point in shading space, it
// returns the color at that point and whether the point is covered at all
// (a point outside both circles/segment with extend disabled is not).
type Shading interface {
	At(p vec.Vec2) (color.RGB, bool)
	BBox() (pdf.Rectangle, bool)
}

// Axial is a Type 2 shading: color varies linearly along the segment from
// P0 to P1, via t = ((P - P0).(P1 - P0)) / |P1 - P0|^2, added by analogy to
// the radial evaluator (the declared Type 2 renderer body was incomplete).
type Axial struct {
	ColorSpace color.Space
	P0, P1     vec.Vec2
	Domain     [2]float64 // default {0, 1}
	Functions  []function.Function
	Extend     [2]bool
	Box        pdf.Rectangle
	HasBox     bool
}

func (a *Axial) BBox() (pdf.Rectangle, bool) { return a.Box, a.HasBox }

func (a *Axial) At(p vec.Vec2) (color.RGB, bool) {
	dx, dy := a.P1.X-a.P0.X, a.P1.Y-a.P0.Y
	denom := dx*dx + dy*dy
	if denom == 0 {
		return color.RGB{}, false
	}
	t := ((p.X-a.P0.X)*dx + (p.Y-a.P0.Y)*dy) / denom

	if t < 0 {
		if !a.Extend[0] {
			return color.RGB{}, false
		}
		t = 0
	}
	if t > 1 {
		if !a.Extend[1] {
			return color.RGB{}, false
		}
		t = 1
	}

	domain := a.domain()
	s := domain[0] + t*(domain[1]-domain[0])
	return evalColor(a.ColorSpace, a.Functions, s), true
}

func (a *Axial) domain() [2]float64 {
	if a.Domain == ([2]float64{}) {
		return [2]float64{0, 1}
	}
	return a.Domain
}

// Radial is a Type 3 shading: color varies over the family of circles
// interpolating center/radius between (Center1, R1) and (Center2, R2).
type Radial struct {
	ColorSpace       color.Space
	Center1          vec.Vec2
	R1               float64
	Center2          vec.Vec2
	R2               float64
	Domain           [2]float64 // default {0, 1}
	Functions        []function.Function
	Extend           [2]bool
	Box              pdf.Rectangle
	HasBox           bool
}

func (rs *Radial) BBox() (pdf.Rectangle, bool) { return rs.Box, rs.HasBox }

// At implements the 4-step radial algorithm: solve the circle-envelope
// quadratic for t, prefer the frontmost root in [0, 1] (or the t=1 endpoint
// if the point is inside the end circle), fall back to extension beyond
// [0, 1] when enabled, map t onto the domain, and evaluate the function(s).
func (rs *Radial) At(p vec.Vec2) (color.RGB, bool) {
	t, ok := rs.solveT(p)
	if !ok {
		return color.RGB{}, false
	}
	domain := rs.domain()
	s := domain[0] + t*(domain[1]-domain[0])
	return evalColor(rs.ColorSpace, rs.Functions, s), true
}

func (rs *Radial) domain() [2]float64 {
	if rs.Domain == ([2]float64{}) {
		return [2]float64{0, 1}
	}
	return rs.Domain
}

// circleAt returns the center and radius of the interpolated circle at
// parameter t.
func (rs *Radial) circleAt(t float64) (vec.Vec2, float64) {
	cx := rs.Center1.X + t*(rs.Center2.X-rs.Center1.X)
	cy := rs.Center1.Y + t*(rs.Center2.Y-rs.Center1.Y)
	r := rs.R1 + t*(rs.R2-rs.R1)
	return vec.Vec2{X: cx, Y: cy}, r
}

// insideCircleAt reports whether p lies within (or on) the circle at
// parameter t. Only meaningful for t in [0, 1] (radius may be negative
// outside that range, which this still handles via r*r).
func (rs *Radial) insideCircleAt(p vec.Vec2, t float64) bool {
	c, r := rs.circleAt(t)
	dx, dy := p.X-c.X, p.Y-c.Y
	return dx*dx+dy*dy <= r*r
}

func (rs *Radial) solveT(p vec.Vec2) (float64, bool) {
	// |P - ((1-t)C1 + t*C2)|^2 = ((1-t)R1 + t*R2)^2
	dcx := rs.Center2.X - rs.Center1.X
	dcy := rs.Center2.Y - rs.Center1.Y
	dr := rs.R2 - rs.R1

	fx := p.X - rs.Center1.X
	fy := p.Y - rs.Center1.Y

	a := dcx*dcx + dcy*dcy - dr*dr
	b := -2 * (fx*dcx + fy*dcy + rs.R1*dr)
	c := fx*fx + fy*fy - rs.R1*rs.R1

	roots := solveQuadratic(a, b, c)

	// Prefer the frontmost (largest) root in [0, 1] whose radius is
	// non-negative.
	best, haveBest := 0.0, false
	for _, t := range roots {
		if t < 0 || t > 1 {
			continue
		}
		_, r := rs.circleAt(t)
		if r < 0 {
			continue
		}
		if !haveBest || t > best {
			best, haveBest = t, true
		}
	}
	if haveBest {
		return best, true
	}
	if rs.insideCircleAt(p, 1) {
		return 1, true
	}

	if rs.Extend[0] {
		if _, ok := closestRootBelow(roots, 0, rs); ok {
			return 0, true
		}
	}
	if rs.Extend[1] {
		if _, ok := closestRootAbove(roots, 1, rs); ok {
			return 1, true
		}
	}
	return 0, false
}

func closestRootBelow(roots []float64, bound float64, rs *Radial) (float64, bool) {
	best, have := 0.0, false
	for _, t := range roots {
		if t >= bound {
			continue
		}
		_, r := rs.circleAt(t)
		if r < 0 {
			continue
		}
		if !have || t > best {
			best, have = t, true
		}
	}
	return best, have
}

func closestRootAbove(roots []float64, bound float64, rs *Radial) (float64, bool) {
	best, have := 0.0, false
	for _, t := range roots {
		if t <= bound {
			continue
		}
		_, r := rs.circleAt(t)
		if r < 0 {
			continue
		}
		if !have || t < best {
			best, have = t, true
		}
	}
	return best, have
}

// solveQuadratic returns the real roots of a*t^2 + b*t + c = 0. A linear
// degenerate case (a == 0) yields a single root.
func solveQuadratic(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := sqrt(disc)
	return []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)}
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	// Newton's method, a fixed number of iterations starting from x.
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// evalColor evaluates the shading's function(s) at s (either one
// vector-valued function, or one scalar function per output component, per
// the /Function entry's polymorphism) and maps the result through cs.
func evalColor(cs color.Space, fns []function.Function, s float64) color.RGB {
	n := cs.NumComponents()
	comps := make([]float64, n)
	if len(fns) == 1 {
		fns[0].Apply(comps, s)
	} else {
		for i, f := range fns {
			if i >= n {
				break
			}
			out := make([]float64, f.NumOutputs())
			f.Apply(out, s)
			if len(out) > 0 {
				comps[i] = out[0]
			}
		}
	}
	return cs.ToRGB(comps)
}

// Sample evaluates sh at every point of the device-space rectangle [x0,x1) x
// [y0,y1), transforming each sample point back into shading space via the
// inverse of ctm, and calls write(x, y, rgb) for every covered pixel. If sh
// declares a /BBox, the sampled range is first clipped to that box (mapped
// into device space by ctm), per PDF 32000-1:2008 §8.7.4.3.
func Sample(sh Shading, ctm matrix.Matrix, x0, y0, x1, y1 int, write func(x, y int, c color.RGB)) error {
	inv, ok := invert(ctm)
	if !ok {
		return fmt.Errorf("shading: singular CTM, cannot sample")
	}

	if box, hasBox := sh.BBox(); hasBox {
		minX, minY, maxX, maxY := deviceBBox(ctm, box)
		x0, x1 = maxInt(x0, int(math.Floor(minX))), minInt(x1, int(math.Ceil(maxX)))
		y0, y1 = maxInt(y0, int(math.Floor(minY))), minInt(y1, int(math.Ceil(maxY)))
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			device := vec.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			p := inv.Apply(device)
			if c, ok := sh.At(p); ok {
				write(x, y, c)
			}
		}
	}
	return nil
}

// deviceBBox maps box's four corners through ctm and returns the axis-
// aligned bounding rectangle of the result, since an affine transform can
// rotate or skew the box away from axis alignment.
func deviceBBox(ctm matrix.Matrix, box pdf.Rectangle) (minX, minY, maxX, maxY float64) {
	corners := [4]vec.Vec2{
		{X: box.LLx, Y: box.LLy},
		{X: box.URx, Y: box.LLy},
		{X: box.URx, Y: box.URy},
		{X: box.LLx, Y: box.URy},
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, corner := range corners {
		p := ctm.Apply(corner)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// invert computes the inverse of a 2x3 affine matrix {a, b, c, d, e, f}
// (geom/matrix's own Matrix type carries no exported Invert method).
func invert(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return matrix.Matrix{}, false
	}
	invDet := 1 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	e := -(m[4]*a + m[5]*c)
	f := -(m[4]*b + m[5]*d)
	return matrix.Matrix{a, b, c, d, e, f}, true
}

// Read resolves a shading dictionary (or stream, for mesh types not handled
// here) and returns its evaluator.
func Read(r pdf.Getter, obj pdf.Object) (Shading, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	var dict pdf.Dict
	switch v := obj.(type) {
	case pdf.Dict:
		dict = v
	case *pdf.Stream:
		dict = v.Dict
	default:
		return nil, fmt.Errorf("shading: expected a dict or stream, got %T", obj)
	}

	stInt, err := pdf.GetInteger(r, dict["ShadingType"])
	if err != nil {
		return nil, pdf.Wrap(err, "shading: /ShadingType")
	}
	st := Type(stInt)

	cs, err := color.Resolve(r, dict["ColorSpace"])
	if err != nil {
		return nil, pdf.Wrap(err, "shading: /ColorSpace")
	}

	fns, err := readFunctions(r, dict["Function"])
	if err != nil {
		return nil, pdf.Wrap(err, "shading: /Function")
	}

	domain, err := pdf.GetFloatArray(r, dict["Domain"])
	if err != nil {
		return nil, err
	}
	var dom [2]float64
	if len(domain) == 2 {
		dom = [2]float64{domain[0], domain[1]}
	} else {
		dom = [2]float64{0, 1}
	}

	extend, err := readExtend(r, dict["Extend"])
	if err != nil {
		return nil, err
	}

	box, hasBox, err := readBBox(r, dict["BBox"])
	if err != nil {
		return nil, err
	}

	switch st {
	case TypeAxial:
		coords, err := pdf.GetFloatArray(r, dict["Coords"])
		if err != nil {
			return nil, err
		}
		if len(coords) != 4 {
			return nil, fmt.Errorf("shading: axial /Coords must have 4 entries")
		}
		return &Axial{
			ColorSpace: cs,
			P0:         vec.Vec2{X: coords[0], Y: coords[1]},
			P1:         vec.Vec2{X: coords[2], Y: coords[3]},
			Domain:     dom,
			Functions:  fns,
			Extend:     extend,
			Box:        box,
			HasBox:     hasBox,
		}, nil
	case TypeRadial:
		coords, err := pdf.GetFloatArray(r, dict["Coords"])
		if err != nil {
			return nil, err
		}
		if len(coords) != 6 {
			return nil, fmt.Errorf("shading: radial /Coords must have 6 entries")
		}
		return &Radial{
			ColorSpace: cs,
			Center1:    vec.Vec2{X: coords[0], Y: coords[1]},
			R1:         coords[2],
			Center2:    vec.Vec2{X: coords[3], Y: coords[4]},
			R2:         coords[5],
			Domain:     dom,
			Functions:  fns,
			Extend:     extend,
			Box:        box,
			HasBox:     hasBox,
		}, nil
	default:
		return nil, &ErrUnsupportedShadingType{Type: st}
	}
}

func readFunctions(r pdf.Getter, obj pdf.Object) ([]function.Function, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if arr, ok := obj.(pdf.Array); ok {
		fns := make([]function.Function, len(arr))
		for i, o := range arr {
			f, err := function.Read(r, o)
			if err != nil {
				return nil, err
			}
			fns[i] = f
		}
		return fns, nil
	}
	f, err := function.Read(r, obj)
	if err != nil {
		return nil, err
	}
	return []function.Function{f}, nil
}

func readExtend(r pdf.Getter, obj pdf.Object) ([2]bool, error) {
	if obj == nil {
		return [2]bool{}, nil
	}
	arr, err := pdf.GetArray(r, obj)
	if err != nil {
		return [2]bool{}, err
	}
	if len(arr) != 2 {
		return [2]bool{}, nil
	}
	var out [2]bool
	for i, o := range arr {
		v, err := pdf.Resolve(r, o)
		if err != nil {
			return [2]bool{}, err
		}
		if b, ok := v.(pdf.Boolean); ok {
			out[i] = bool(b)
		}
	}
	return out, nil
}

func readBBox(r pdf.Getter, obj pdf.Object) (pdf.Rectangle, bool, error) {
	if obj == nil {
		return pdf.Rectangle{}, false, nil
	}
	vals, err := pdf.GetFloatArray(r, obj)
	if err != nil {
		return pdf.Rectangle{}, false, err
	}
	if len(vals) != 4 {
		return pdf.Rectangle{}, false, nil
	}
	return pdf.Rectangle{LLx: vals[0], LLy: vals[1], URx: vals[2], URy: vals[3]}, true, nil
}
