package function

import (
	"fmt"
	"math"

	"inkwell.dev/pdf"
)

// Type2 is an exponential interpolation function (PDF 32000-1:2008 §7.10.3):
// y_j(x) = C0_j + x^N * (C1_j - C0_j).
type Type2 struct {
	XMin, XMax float64
	Range      []float64 // optional, 2*n entries
	C0, C1     []float64 // default {0.0}, {1.0}
	N          float64
}

func (f *Type2) NumInputs() int { return 1 }

func (f *Type2) NumOutputs() int {
	if len(f.C0) > 0 {
		return len(f.C0)
	}
	return 1
}

func (f *Type2) validate() error {
	if !isRange(f.XMin, f.XMax) {
		return fmt.Errorf("function: type 2: invalid domain [%v, %v]", f.XMin, f.XMax)
	}
	c0, c1 := f.c0(), f.c1()
	if len(c0) != len(c1) {
		return fmt.Errorf("function: type 2: len(C0)=%d != len(C1)=%d", len(c0), len(c1))
	}
	if f.N != math.Trunc(f.N) && f.XMin < 0 {
		return fmt.Errorf("function: type 2: non-integer exponent N=%v with negative domain", f.N)
	}
	if f.Range != nil && len(f.Range)%2 != 0 {
		return fmt.Errorf("function: type 2: /Range has odd length")
	}
	return nil
}

func (f *Type2) c0() []float64 {
	if len(f.C0) > 0 {
		return f.C0
	}
	return []float64{0.0}
}

func (f *Type2) c1() []float64 {
	if len(f.C1) > 0 {
		return f.C1
	}
	return []float64{1.0}
}

func (f *Type2) Apply(out []float64, in ...float64) {
	x := clip(in[0], f.XMin, f.XMax)
	xn := math.Pow(x, f.N)
	c0, c1 := f.c0(), f.c1()
	for j := range c0 {
		y := c0[j] + xn*(c1[j]-c0[j])
		if f.Range != nil && 2*j+1 < len(f.Range) {
			y = clip(y, f.Range[2*j], f.Range[2*j+1])
		}
		out[j] = y
	}
}

func readType2(r pdf.Getter, dict pdf.Dict, domain, rng []float64) (*Type2, error) {
	if len(domain) < 2 {
		return nil, fmt.Errorf("function: type 2: /Domain must have at least 2 entries")
	}
	c0, err := floatArrayFromDict(r, dict, "C0")
	if err != nil {
		return nil, err
	}
	c1, err := floatArrayFromDict(r, dict, "C1")
	if err != nil {
		return nil, err
	}
	n, err := pdf.GetNumber(r, dict["N"])
	if err != nil {
		return nil, pdf.Wrap(err, "function: type 2: /N")
	}
	return &Type2{XMin: domain[0], XMax: domain[1], Range: rng, C0: c0, C1: c1, N: float64(n)}, nil
}
