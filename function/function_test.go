package function

import (
	"math"
	"testing"
)

func TestIsRange(t *testing.T) {
	cases := []struct {
		x, y  float64
		valid bool
	}{
		{0, 1, true},
		{1, 0, false},
		{-1, 1, true},
		{1, -1, false},
		{0, 0, true},
		{math.NaN(), 1, false},
		{1, math.NaN(), false},
		{math.Inf(-1), 0, false},
		{math.Inf(-1), math.Inf(1), false},
		{0, math.Inf(1), false},
	}
	for _, c := range cases {
		if got := isRange(c.x, c.y); got != c.valid {
			t.Errorf("isRange(%v, %v) = %v, want %v", c.x, c.y, got, c.valid)
		}
	}
}

func TestType2Linear(t *testing.T) {
	f := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1}
	out := make([]float64, 1)
	f.Apply(out, 0.5)
	if math.Abs(out[0]-0.5) > 1e-12 {
		t.Fatalf("got %v, want 0.5", out[0])
	}
}

func TestType2Quadratic(t *testing.T) {
	f := &Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 2}
	out := make([]float64, 1)
	f.Apply(out, 0.5)
	if math.Abs(out[0]-0.25) > 1e-12 {
		t.Fatalf("got %v, want 0.25", out[0])
	}
}

func TestType2Validate(t *testing.T) {
	f := &Type2{XMin: 0, XMax: 1, C0: []float64{0, 0}, C1: []float64{1}, N: 1}
	if err := f.validate(); err == nil {
		t.Fatalf("expected a C0/C1 length mismatch error")
	}
}

func TestType2NegativeDomainNonIntegerN(t *testing.T) {
	f := &Type2{XMin: -1, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 0.5}
	if err := f.validate(); err == nil {
		t.Fatalf("expected a negative-domain/non-integer-N error")
	}
}

func TestType3FindSubdomainNormal(t *testing.T) {
	f := &Type3{
		XMin: 0, XMax: 2,
		Functions: []Function{
			&Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1},
			&Type2{XMin: 0, XMax: 1, C0: []float64{1}, C1: []float64{0}, N: 1},
		},
		Bounds: []float64{1.0},
		Encode: []float64{0, 1, 0, 1},
	}

	cases := []struct {
		x          float64
		wantFunc   int
		wantLo, wantHi float64
	}{
		{0.0, 0, 0, 1},
		{0.999, 0, 0, 1},
		{1.0, 1, 1, 2},
		{1.5, 1, 1, 2},
		{2.0, 1, 1, 2},
	}
	for _, c := range cases {
		i, lo, hi := f.findSubdomain(c.x)
		if i != c.wantFunc || lo != c.wantLo || hi != c.wantHi {
			t.Errorf("findSubdomain(%v) = (%d, %v, %v), want (%d, %v, %v)",
				c.x, i, lo, hi, c.wantFunc, c.wantLo, c.wantHi)
		}
	}
}

func TestType3DegenerateSubdomain(t *testing.T) {
	// XMin coincides with the first bound: the first subdomain collapses to
	// the single point XMin.
	f := &Type3{
		XMin: 0, XMax: 2,
		Functions: []Function{
			&Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{1}, N: 1},
			&Type2{XMin: 0, XMax: 1, C0: []float64{1}, C1: []float64{0}, N: 1},
		},
		Bounds: []float64{0.0},
		Encode: []float64{0, 1, 0, 1},
	}

	if i, lo, hi := f.findSubdomain(0.0); i != 0 || lo != 0 || hi != 0 {
		t.Errorf("findSubdomain(0.0) = (%d, %v, %v), want (0, 0, 0)", i, lo, hi)
	}
	if i, lo, hi := f.findSubdomain(0.5); i != 1 || lo != 0 || hi != 2 {
		t.Errorf("findSubdomain(0.5) = (%d, %v, %v), want (1, 0, 2)", i, lo, hi)
	}
}

func TestType3Apply(t *testing.T) {
	f := &Type3{
		XMin: 0, XMax: 2,
		Functions: []Function{
			&Type2{XMin: 0, XMax: 1, C0: []float64{0}, C1: []float64{0}, N: 1},
			&Type2{XMin: 0, XMax: 1, C0: []float64{1}, C1: []float64{1}, N: 1},
		},
		Bounds: []float64{1.0},
		Encode: []float64{0, 1, 0, 1},
	}
	out := make([]float64, 1)
	f.Apply(out, 1.0)
	if out[0] != 1.0 {
		t.Fatalf("got %v, want 1.0 (boundary selects the second function)", out[0])
	}
}

func TestType0Multilinear(t *testing.T) {
	f := &Type0{
		Domain:        []float64{0, 1},
		Range:         []float64{0, 1},
		Size:          []int{2},
		BitsPerSample: 8,
		Encode:        []float64{0, 1},
		Decode:        []float64{0, 1},
		Samples:       []byte{0, 255},
	}
	out := make([]float64, 1)
	f.Apply(out, 0.5)
	if math.Abs(out[0]-0.5) > 1e-9 {
		t.Fatalf("got %v, want ~0.5", out[0])
	}
}

func TestType0Validate(t *testing.T) {
	f := &Type0{
		Domain:        []float64{0, 1, 0, 1},
		Range:         []float64{0, 1},
		Size:          []int{2},
		BitsPerSample: 8,
	}
	if err := f.validate(); err == nil {
		t.Fatalf("expected a /Size length mismatch error")
	}
}

func TestType4Arithmetic(t *testing.T) {
	cases := []struct {
		program string
		inputs  []float64
		want    float64
	}{
		{"add", []float64{1, 2}, 3},
		{"mul", []float64{3, 4}, 12},
		{"dup mul", []float64{5}, 25},
		{"exch sub", []float64{1, 5}, 4},
	}
	for _, c := range cases {
		f := &Type4{
			Domain:  make([]float64, 2*len(c.inputs)),
			Range:   []float64{-1e9, 1e9},
			Program: "{ " + c.program + " }",
		}
		for i := range c.inputs {
			f.Domain[2*i] = -1e9
			f.Domain[2*i+1] = 1e9
		}
		out := make([]float64, 1)
		f.Apply(out, c.inputs...)
		if out[0] != c.want {
			t.Errorf("program %q: got %v, want %v", c.program, out[0], c.want)
		}
	}
}

func TestType4IfElse(t *testing.T) {
	f := &Type4{
		Domain:  []float64{0, 1},
		Range:   []float64{0, 1},
		Program: "{ 0.5 gt { 1 } { 0 } ifelse }",
	}
	out := make([]float64, 1)
	f.Apply(out, 0.8)
	if out[0] != 1 {
		t.Fatalf("got %v, want 1", out[0])
	}
	f.Apply(out, 0.2)
	if out[0] != 0 {
		t.Fatalf("got %v, want 0", out[0])
	}
}
