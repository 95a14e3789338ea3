package function

import (
	"fmt"

	"inkwell.dev/pdf"
)

// Type3 is a stitching function (PDF 32000-1:2008 §7.10.4): the domain
// [XMin, XMax] is partitioned by Bounds into len(Functions) subdomains, each
// evaluated by encoding x into the corresponding Functions[i]'s own domain.
type Type3 struct {
	XMin, XMax float64
	Range      []float64 // optional
	Functions  []Function
	Bounds     []float64 // len(Functions)-1 entries, non-decreasing
	Encode     []float64 // 2*len(Functions) entries
}

func (f *Type3) NumInputs() int { return 1 }

func (f *Type3) NumOutputs() int {
	if f.Range != nil {
		return pairs(f.Range)
	}
	if len(f.Functions) > 0 {
		return f.Functions[0].NumOutputs()
	}
	return 0
}

func (f *Type3) validate() error {
	if !isRange(f.XMin, f.XMax) {
		return fmt.Errorf("function: type 3: invalid domain [%v, %v]", f.XMin, f.XMax)
	}
	k := len(f.Functions)
	if k == 0 {
		return fmt.Errorf("function: type 3: /Functions must be non-empty")
	}
	if len(f.Bounds) != k-1 {
		return fmt.Errorf("function: type 3: len(/Bounds)=%d, want %d", len(f.Bounds), k-1)
	}
	if len(f.Encode) != 2*k {
		return fmt.Errorf("function: type 3: len(/Encode)=%d, want %d", len(f.Encode), 2*k)
	}
	prev := f.XMin
	for _, b := range f.Bounds {
		if b < prev {
			return fmt.Errorf("function: type 3: /Bounds is not non-decreasing")
		}
		prev = b
	}
	return nil
}

// findSubdomain returns the index of the function that covers x, and the
// [lo, hi] subdomain it was selected from. Subdomains are closed on the
// left and open on the right, except the last (closed on both ends); a
// degenerate subdomain (lo == hi, which happens when XMin or XMax coincides
// with an interior bound) is closed on both ends and matches only x == lo.
func (f *Type3) findSubdomain(x float64) (int, float64, float64) {
	edges := make([]float64, 0, len(f.Bounds)+2)
	edges = append(edges, f.XMin)
	edges = append(edges, f.Bounds...)
	edges = append(edges, f.XMax)

	k := len(f.Functions)
	for i := 0; i < k-1; i++ {
		lo, hi := edges[i], edges[i+1]
		if lo == hi {
			if x == lo {
				return i, lo, hi
			}
			continue
		}
		if x >= lo && x < hi {
			return i, lo, hi
		}
	}
	last := k - 1
	return last, edges[last], edges[last+1]
}

func (f *Type3) Apply(out []float64, in ...float64) {
	x := clip(in[0], f.XMin, f.XMax)
	i, lo, hi := f.findSubdomain(x)
	e0, e1 := f.Encode[2*i], f.Encode[2*i+1]
	ex := interpolate(x, lo, hi, e0, e1)

	f.Functions[i].Apply(out, ex)

	if f.Range != nil {
		for j := 0; j < pairs(f.Range); j++ {
			out[j] = clip(out[j], f.Range[2*j], f.Range[2*j+1])
		}
	}
}

func readType3(r pdf.Getter, dict pdf.Dict, domain, rng []float64) (*Type3, error) {
	if len(domain) < 2 {
		return nil, fmt.Errorf("function: type 3: /Domain must have at least 2 entries")
	}
	fnArr, err := pdf.GetArray(r, dict["Functions"])
	if err != nil {
		return nil, pdf.Wrap(err, "function: type 3: /Functions")
	}
	fns := make([]Function, len(fnArr))
	for i, o := range fnArr {
		sub, err := Read(r, o)
		if err != nil {
			return nil, err
		}
		fns[i] = sub
	}
	bounds, err := floatArrayFromDict(r, dict, "Bounds")
	if err != nil {
		return nil, err
	}
	encode, err := floatArrayFromDict(r, dict, "Encode")
	if err != nil {
		return nil, err
	}
	return &Type3{
		XMin: domain[0], XMax: domain[1],
		Range:     rng,
		Functions: fns,
		Bounds:    bounds,
		Encode:    encode,
	}, nil
}
