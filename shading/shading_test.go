package shading

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"inkwell.dev/pdf"
	"inkwell.dev/pdf/color"
	"inkwell.dev/pdf/function"
)

func grayFn() []function.Function {
	return []function.Function{&function.Type2{
		XMin: 0, XMax: 1,
		C0: []float64{0}, C1: []float64{1}, N: 1,
	}}
}

func TestAxialEndpoints(t *testing.T) {
	a := &Axial{
		ColorSpace: color.DeviceGray{},
		P0:         vec.Vec2{X: 0, Y: 0},
		P1:         vec.Vec2{X: 100, Y: 0},
		Domain:     [2]float64{0, 1},
		Functions:  grayFn(),
	}
	c, ok := a.At(vec.Vec2{X: 0, Y: 0})
	if !ok || math.Abs(c.R) > 1e-9 {
		t.Fatalf("at P0: got %+v, ok=%v", c, ok)
	}
	c, ok = a.At(vec.Vec2{X: 100, Y: 0})
	if !ok || math.Abs(c.R-1) > 1e-9 {
		t.Fatalf("at P1: got %+v, ok=%v", c, ok)
	}
	c, ok = a.At(vec.Vec2{X: 50, Y: 0})
	if !ok || math.Abs(c.R-0.5) > 1e-9 {
		t.Fatalf("at midpoint: got %+v, ok=%v", c, ok)
	}
}

func TestAxialNoExtendOutsideSegment(t *testing.T) {
	a := &Axial{
		ColorSpace: color.DeviceGray{},
		P0:         vec.Vec2{X: 0, Y: 0},
		P1:         vec.Vec2{X: 100, Y: 0},
		Domain:     [2]float64{0, 1},
		Functions:  grayFn(),
	}
	if _, ok := a.At(vec.Vec2{X: -10, Y: 0}); ok {
		t.Fatalf("expected unshaded sample beyond P0 without extend")
	}
}

func TestAxialExtend(t *testing.T) {
	a := &Axial{
		ColorSpace: color.DeviceGray{},
		P0:         vec.Vec2{X: 0, Y: 0},
		P1:         vec.Vec2{X: 100, Y: 0},
		Domain:     [2]float64{0, 1},
		Functions:  grayFn(),
		Extend:     [2]bool{true, true},
	}
	c, ok := a.At(vec.Vec2{X: -50, Y: 0})
	if !ok || math.Abs(c.R) > 1e-9 {
		t.Fatalf("expected clipped-to-0 sample, got %+v ok=%v", c, ok)
	}
	c, ok = a.At(vec.Vec2{X: 150, Y: 0})
	if !ok || math.Abs(c.R-1) > 1e-9 {
		t.Fatalf("expected clipped-to-1 sample, got %+v ok=%v", c, ok)
	}
}

func TestRadialConcentricGrowing(t *testing.T) {
	r := &Radial{
		ColorSpace: color.DeviceGray{},
		Center1:    vec.Vec2{X: 0, Y: 0},
		R1:         0,
		Center2:    vec.Vec2{X: 0, Y: 0},
		R2:         100,
		Domain:     [2]float64{0, 1},
		Functions:  grayFn(),
	}
	c, ok := r.At(vec.Vec2{X: 0, Y: 0})
	if !ok || math.Abs(c.R) > 1e-9 {
		t.Fatalf("at center (t=0 circle): got %+v ok=%v", c, ok)
	}
	c, ok = r.At(vec.Vec2{X: 50, Y: 0})
	if !ok || math.Abs(c.R-0.5) > 1e-6 {
		t.Fatalf("at radius 50 (t=0.5): got %+v ok=%v", c, ok)
	}
	c, ok = r.At(vec.Vec2{X: 100, Y: 0})
	if !ok || math.Abs(c.R-1) > 1e-6 {
		t.Fatalf("at radius 100 (t=1): got %+v ok=%v", c, ok)
	}
	if _, ok := r.At(vec.Vec2{X: 150, Y: 0}); ok {
		t.Fatalf("expected unshaded sample outside the outer circle")
	}
}

func TestRadialExtendOuter(t *testing.T) {
	r := &Radial{
		ColorSpace: color.DeviceGray{},
		Center1:    vec.Vec2{X: 0, Y: 0},
		R1:         0,
		Center2:    vec.Vec2{X: 0, Y: 0},
		R2:         100,
		Domain:     [2]float64{0, 1},
		Functions:  grayFn(),
		Extend:     [2]bool{false, true},
	}
	c, ok := r.At(vec.Vec2{X: 150, Y: 0})
	if !ok || math.Abs(c.R-1) > 1e-9 {
		t.Fatalf("expected t=1 color beyond outer circle with extend, got %+v ok=%v", c, ok)
	}
}

func TestInvertIdentity(t *testing.T) {
	inv, ok := invert(matrix.Identity)
	if !ok {
		t.Fatalf("identity matrix should be invertible")
	}
	if inv != matrix.Identity {
		t.Fatalf("inverse of identity should be identity, got %+v", inv)
	}
}

func TestInvertTranslation(t *testing.T) {
	m := matrix.Matrix{1, 0, 0, 1, 10, 20}
	inv, ok := invert(m)
	if !ok {
		t.Fatalf("translation matrix should be invertible")
	}
	p := inv.Apply(vec.Vec2{X: 10, Y: 20})
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Fatalf("expected origin, got %+v", p)
	}
}

func TestSampleClipsToBBox(t *testing.T) {
	a := &Axial{
		ColorSpace: color.DeviceGray{},
		P0:         vec.Vec2{X: 0, Y: 0},
		P1:         vec.Vec2{X: 100, Y: 0},
		Domain:     [2]float64{0, 1},
		Functions:  grayFn(),
		Extend:     [2]bool{true, true},
		Box:        pdf.Rectangle{LLx: 10, LLy: 0, URx: 20, URy: 10},
		HasBox:     true,
	}
	painted := make(map[[2]int]bool)
	err := Sample(a, matrix.Identity, 0, 0, 100, 10, func(x, y int, c color.RGB) {
		painted[[2]int{x, y}] = true
	})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if painted[[2]int{5, 5}] {
		t.Fatalf("expected x=5 to be clipped by BBox [10,20]")
	}
	if !painted[[2]int{15, 5}] {
		t.Fatalf("expected x=15 to be painted inside BBox [10,20]")
	}
	if painted[[2]int{25, 5}] {
		t.Fatalf("expected x=25 to be clipped by BBox [10,20]")
	}
}

func TestSolveQuadratic(t *testing.T) {
	roots := solveQuadratic(1, 0, -4)
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	sum := roots[0] + roots[1]
	if math.Abs(sum) > 1e-9 {
		t.Fatalf("roots of t^2-4 should be +-2, got %v", roots)
	}
}
