// Package function evaluates PDF function dictionaries (PDF 32000-1:2008
// §7.10): sampled (type 0), exponential interpolation (type 2), stitching
// (type 3), and PostScript calculator (type 4) functions.
package function

import (
	"fmt"
	"math"

	"inkwell.dev/pdf"
)

// Function is a PDF function: a mapping from m input values to n output
// values, both fixed once the function is constructed.
type Function interface {
	// Apply evaluates the function at in, writing n values to out. out must
	// have at least NumOutputs() capacity.
	Apply(out []float64, in ...float64)

	NumInputs() int
	NumOutputs() int

	validate() error
}

// isRange reports whether [x, y] is a well-formed, finite interval with
// x <= y. NaN and infinite bounds are always rejected: PDF function
// Domain/Range/Encode/Decode pairs are always finite.
func isRange(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	return x <= y
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// interpolate maps x linearly from [xmin, xmax] to [ymin, ymax], per
// PDF 32000-1:2008 §7.10.5 equation 7.10.5-1. A degenerate source interval
// maps everything to ymin.
func interpolate(x, xmin, xmax, ymin, ymax float64) float64 {
	if xmax == xmin {
		return ymin
	}
	return ymin + (x-xmin)*(ymax-ymin)/(xmax-xmin)
}

func pairs(domain []float64) int {
	return len(domain) / 2
}

// Read decodes a PDF function dictionary or stream into a Function,
// dispatching on /FunctionType.
func Read(r pdf.Getter, obj pdf.Object) (Function, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	var dict pdf.Dict
	var stream *pdf.Stream
	switch v := obj.(type) {
	case pdf.Dict:
		dict = v
	case *pdf.Stream:
		dict = v.Dict
		stream = v
	default:
		return nil, fmt.Errorf("function: expected a dictionary or stream, got %T", obj)
	}

	ft, err := pdf.GetInteger(r, dict["FunctionType"])
	if err != nil {
		return nil, pdf.Wrap(err, "function: /FunctionType")
	}

	domain, err := pdf.GetFloatArray(r, dict["Domain"])
	if err != nil {
		return nil, pdf.Wrap(err, "function: /Domain")
	}
	var rng []float64
	if dict["Range"] != nil {
		rng, err = pdf.GetFloatArray(r, dict["Range"])
		if err != nil {
			return nil, pdf.Wrap(err, "function: /Range")
		}
	}

	var f Function
	switch ft {
	case 0:
		if stream == nil {
			return nil, fmt.Errorf("function: type 0 requires a stream")
		}
		f, err = readType0(r, dict, stream, domain, rng)
	case 2:
		f, err = readType2(r, dict, domain, rng)
	case 3:
		f, err = readType3(r, dict, domain, rng)
	case 4:
		if stream == nil {
			return nil, fmt.Errorf("function: type 4 requires a stream")
		}
		f, err = readType4(r, dict, stream, domain, rng)
	default:
		return nil, fmt.Errorf("function: unsupported /FunctionType %d", ft)
	}
	if err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func floatArrayFromDict(r pdf.Getter, dict pdf.Dict, key pdf.Name) ([]float64, error) {
	if dict[key] == nil {
		return nil, nil
	}
	return pdf.GetFloatArray(r, dict[key])
}
