// Package color converts PDF color-space/component pairs into sRGB, for use
// by the content interpreter and shading renderer when painting to a
// canvas: PDF component values in, sRGB out.
package color

import (
	"fmt"
	"math"

	"inkwell.dev/pdf"
)

// RGB is a color in sRGB space, each component in [0, 1]. Conversions that
// go through srgbEncode (DeviceCMYK, CalRGB) yield gamma-encoded values;
// DeviceGray and DeviceRGB pass their components through unchanged.
type RGB struct {
	R, G, B float64
}

// Space is a resolved PDF color space: enough information to map a set of
// component values to RGB.
type Space interface {
	// NumComponents is the number of color components this space expects.
	NumComponents() int
	// ToRGB converts components (len(components) == NumComponents()) to RGB.
	ToRGB(components []float64) RGB
}

// DeviceGray maps a single gray value g to (g, g, g).
type DeviceGray struct{}

func (DeviceGray) NumComponents() int { return 1 }
func (DeviceGray) ToRGB(c []float64) RGB {
	g := clamp01(c[0])
	return RGB{g, g, g}
}

// DeviceRGB is the identity mapping.
type DeviceRGB struct{}

func (DeviceRGB) NumComponents() int { return 3 }
func (DeviceRGB) ToRGB(c []float64) RGB {
	return RGB{clamp01(c[0]), clamp01(c[1]), clamp01(c[2])}
}

// DeviceCMYK maps CMYK to sRGB via the standard naive conversion, followed
// by the linear-to-sRGB transfer curve.
type DeviceCMYK struct{}

func (DeviceCMYK) NumComponents() int { return 4 }
func (DeviceCMYK) ToRGB(c []float64) RGB {
	cc, m, y, k := clamp01(c[0]), clamp01(c[1]), clamp01(c[2]), clamp01(c[3])
	r := (1 - cc) * (1 - k)
	g := (1 - m) * (1 - k)
	b := (1 - y) * (1 - k)
	return RGB{srgbEncode(r), srgbEncode(g), srgbEncode(b)}
}

// srgbEncode applies the sRGB linear-to-nonlinear transfer curve
// (IEC 61966-2-1): linear inputs up to 0.00304 (close to the standard's
// 0.0031308 breakpoint) map with slope 12.92; above it,
// 1.055*x^(1/2.4) - 0.055.
func srgbEncode(x float64) float64 {
	x = clamp01(x)
	if x <= 0.00304 {
		return 12.92 * x
	}
	return 1.055*math.Pow(x, 1/2.4) - 0.055
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// CalRGB is the CIE-calibrated RGB space (PDF 32000-1:2008 §8.6.5.3):
// device RGB values are gamma-expanded, transformed to CIE XYZ by a 3x3
// matrix, remapped relative to the space's white/black points, converted to
// linear sRGB, and finally re-encoded with the sRGB transfer curve.
type CalRGB struct {
	WhitePoint [3]float64
	BlackPoint [3]float64 // default {0, 0, 0}
	Gamma      [3]float64 // default {1, 1, 1}
	Matrix     [9]float64 // default identity: {1,0,0, 0,1,0, 0,0,1}
}

func (CalRGB) NumComponents() int { return 3 }

func (c CalRGB) ToRGB(in []float64) RGB {
	gamma := c.Gamma
	if gamma == ([3]float64{}) {
		gamma = [3]float64{1, 1, 1}
	}
	m := c.Matrix
	if m == ([9]float64{}) {
		m = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}

	a := math.Pow(clamp01(in[0]), gamma[0])
	b := math.Pow(clamp01(in[1]), gamma[1])
	d := math.Pow(clamp01(in[2]), gamma[2])

	x := m[0]*a + m[3]*b + m[6]*d
	y := m[1]*a + m[4]*b + m[7]*d
	z := m[2]*a + m[5]*b + m[8]*d

	x = remap(x, c.BlackPoint[0], c.WhitePoint[0])
	y = remap(y, c.BlackPoint[1], c.WhitePoint[1])
	z = remap(z, c.BlackPoint[2], c.WhitePoint[2])

	r := 3.2406*x - 1.5372*y - 0.4986*z
	g := -0.9689*x + 1.8758*y + 0.0415*z
	bl := 0.0557*x - 0.2040*y + 1.0570*z

	return RGB{srgbEncode(r), srgbEncode(g), srgbEncode(bl)}
}

// remap affinely maps x from [black, white] to [0, 1], guarding against a
// degenerate (black == white) range.
func remap(x, black, white float64) float64 {
	if white == black {
		return x
	}
	return (x - black) / (white - black)
}

// DeviceN maps a single-tint colorant onto CMYK (for the four process-ink
// names) or gray, per spec: a full n-ary tint-transform function is the
// correct general mechanism, but a bare DeviceN color operand with no
// attached function still needs a usable approximation for rendering.
type DeviceN struct {
	Names []pdf.Name
}

func (d DeviceN) NumComponents() int { return len(d.Names) }

func (d DeviceN) ToRGB(c []float64) RGB {
	if len(d.Names) == 1 {
		switch d.Names[0] {
		case "Cyan":
			return DeviceCMYK{}.ToRGB([]float64{c[0], 0, 0, 0})
		case "Magenta":
			return DeviceCMYK{}.ToRGB([]float64{0, c[0], 0, 0})
		case "Yellow":
			return DeviceCMYK{}.ToRGB([]float64{0, 0, c[0], 0})
		case "Black":
			return DeviceCMYK{}.ToRGB([]float64{0, 0, 0, c[0]})
		}
		g := clamp01(1 - c[0])
		return RGB{g, g, g}
	}
	// multi-colorant DeviceN without an evaluated tint transform: fall back
	// to treating the first component as an approximate gray tint.
	if len(c) == 0 {
		return RGB{0, 0, 0}
	}
	g := clamp01(1 - c[0])
	return RGB{g, g, g}
}

// Resolve reads a /ColorSpace entry (a bare Name for a device space, or an
// Array for a parameterized family) and returns the corresponding Space.
func Resolve(r pdf.Getter, obj pdf.Object) (Space, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case pdf.Name:
		return resolveFamily(r, v, nil)
	case pdf.Array:
		if len(v) == 0 {
			return nil, fmt.Errorf("color: empty color space array")
		}
		family, ok := v[0].(pdf.Name)
		if !ok {
			return nil, fmt.Errorf("color: color space array must start with a name")
		}
		return resolveFamily(r, family, v[1:])
	default:
		return nil, fmt.Errorf("color: expected a name or array, got %T", obj)
	}
}

func resolveFamily(r pdf.Getter, family pdf.Name, params pdf.Array) (Space, error) {
	switch family {
	case "DeviceGray", "CalGray", "G":
		return DeviceGray{}, nil
	case "DeviceRGB", "RGB":
		return DeviceRGB{}, nil
	case "DeviceCMYK", "CMYK":
		return DeviceCMYK{}, nil
	case "CalRGB":
		if len(params) == 0 {
			return nil, fmt.Errorf("color: CalRGB requires a parameter dictionary")
		}
		dict, err := pdf.GetDict(r, params[0])
		if err != nil {
			return nil, pdf.Wrap(err, "color: CalRGB parameters")
		}
		return readCalRGB(r, dict)
	case "DeviceN", "Separation":
		if len(params) == 0 {
			return nil, fmt.Errorf("color: %s requires a names array", family)
		}
		var names []pdf.Name
		switch n := params[0].(type) {
		case pdf.Name:
			names = []pdf.Name{n}
		case pdf.Array:
			for _, o := range n {
				name, err := pdf.GetName(r, o)
				if err != nil {
					return nil, err
				}
				names = append(names, name)
			}
		}
		return DeviceN{Names: names}, nil
	case "ICCBased":
		if len(params) == 0 {
			return nil, fmt.Errorf("color: ICCBased requires a stream reference")
		}
		return resolveICCBased(r, params[0])
	case "Indexed":
		return nil, fmt.Errorf("color: Indexed color spaces are not supported")
	case "Pattern":
		return nil, fmt.Errorf("color: Pattern color spaces are not supported")
	case "Lab":
		return nil, fmt.Errorf("color: Lab color spaces are not supported")
	default:
		return nil, fmt.Errorf("color: unknown color space family %q", family)
	}
}

// calRGBParams mirrors CalRGB's fields so the FixedArray<T,n> descriptor
// kind (a Go [n]T array field) does the length checking that used to be
// hand-rolled here; BlackPoint/Gamma/Matrix stay at their Go zero value
// when absent, which ToRGB already treats as "use the default".
type calRGBParams struct {
	WhitePoint [3]float64
	BlackPoint [3]float64 `pdf:"optional"`
	Gamma      [3]float64 `pdf:"optional"`
	Matrix     [9]float64 `pdf:"optional"`
}

func readCalRGB(r pdf.Getter, dict pdf.Dict) (Space, error) {
	var params calRGBParams
	if err := pdf.Decode(r, dict, &params); err != nil {
		return nil, pdf.Wrap(err, "color: CalRGB parameters")
	}
	return CalRGB{
		WhitePoint: params.WhitePoint,
		BlackPoint: params.BlackPoint,
		Gamma:      params.Gamma,
		Matrix:     params.Matrix,
	}, nil
}
