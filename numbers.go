package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf16"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Number is either an Integer or a Real, read back as a plain float64-backed
// value so callers don't need to type-switch on the two PDF number kinds.
type Number float64

// GetNumber resolves obj and returns it as a Number. Integer and Real both
// convert; any other type is ErrIncorrectType.
func GetNumber(r Getter, obj Object) (Number, error) {
	obj, err := Resolve(r, obj)
	if err != nil {
		return 0, err
	}
	switch x := obj.(type) {
	case Integer:
		return Number(x), nil
	case Real:
		return Number(x), nil
	case nil, Null:
		return 0, nil
	default:
		return 0, &MalformedFileError{Err: fmt.Errorf("%w: expected Number but got %T", ErrIncorrectType, obj)}
	}
}

// TextString is the UTF-8 decoding of a PDF "text string" (PDFDocEncoding,
// UTF-16BE with a BOM, or a UTF-8 string with its own 3-byte BOM).
type TextString string

var utf16Marker = []byte{254, 255}
var utf8Marker = []byte{239, 187, 191}

// GetTextString resolves obj, requires it to be a String, and decodes it as
// a PDF text string.
func GetTextString(r Getter, obj Object) (TextString, error) {
	s, err := GetString(r, obj)
	if err != nil {
		return "", err
	}
	return s.AsTextString(), nil
}

// AsTextString decodes a raw PDF string according to its BOM, defaulting to
// PDFDocEncoding when no BOM is present.
func (x String) AsTextString() TextString {
	b := []byte(x)

	var s string
	switch {
	case bytes.HasPrefix(b, utf16Marker):
		buf := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			buf = append(buf, uint16(b[i])<<8|uint16(b[i+1]))
		}
		s = string(utf16.Decode(buf))
	case bytes.HasPrefix(b, utf8Marker):
		s = string(b[3:])
	default:
		s = PDFDocDecode(x)
	}

	return TextString(s)
}

// Date is a point in time as read from a PDF date string.
type Date time.Time

func (d Date) String() string {
	return time.Time(d).Format(time.RFC3339)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}

// GetDate resolves obj, requires it to be a String, and parses it as a PDF
// date string.
func GetDate(r Getter, obj Object) (Date, error) {
	var zero Date

	s, err := GetString(r, obj)
	if err != nil {
		return zero, err
	}
	return s.AsDate()
}

var dateFormats = []string{
	"D:20060102150405-0700",
	"D:20060102150405-07",
	"D:20060102150405Z0000",
	"D:20060102150405Z00",
	"D:20060102150405Z",
	"D:20060102150405",
	"D:200601021504-0700",
	"D:200601021504-07",
	"D:200601021504Z0000",
	"D:200601021504Z00",
	"D:200601021504Z",
	"D:200601021504",
	"D:2006010215",
	"D:20060102",
	"D:200601",
	"D:2006",
	time.ANSIC,
}

// AsDate parses a raw PDF string as a date. If the string is not in one of
// the formats PDF 32000-1:2008 §7.9.4 allows, an error is returned.
func (x String) AsDate() (Date, error) {
	var zero Date

	s := string(x.AsTextString())
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "'", "")
	if s == "D:" || s == "" {
		return zero, nil
	}
	if strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20") {
		s = "D:" + s
	}

	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return Date(t.Truncate(time.Second)), nil
		}
	}
	return zero, errNoDate
}

// Rectangle is a PDF rectangle object, normalized so LLx <= URx and LLy <=
// URy regardless of the order the four numbers appeared in the file.
type Rectangle struct {
	LLx, LLy, URx, URy float64
}

// Dx returns the width of the rectangle.
func (r *Rectangle) Dx() float64 { return r.URx - r.LLx }

// Dy returns the height of the rectangle.
func (r *Rectangle) Dy() float64 { return r.URy - r.LLy }

// GetRectangle resolves references to indirect objects and makes sure the
// resulting object is a PDF rectangle array. If the object is null, nil is
// returned without error.
func GetRectangle(r Getter, obj Object) (*Rectangle, error) {
	a, err := GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	return asRectangle(r, a)
}

func asRectangle(r Getter, a Array) (*Rectangle, error) {
	if len(a) != 4 {
		return nil, errNoRectangle
	}
	values, err := GetFloatArray(r, a)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, errNoRectangle
	}
	return &Rectangle{
		LLx: math.Min(values[0], values[2]),
		LLy: math.Min(values[1], values[3]),
		URx: math.Max(values[0], values[2]),
		URy: math.Max(values[1], values[3]),
	}, nil
}

func (r *Rectangle) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.LLx, r.LLy, r.URx, r.URy)
}

// IsZero is true if the rectangle is the zero rectangle object.
func (r Rectangle) IsZero() bool {
	return r.LLx == 0 && r.LLy == 0 && r.URx == 0 && r.URy == 0
}

// Equal reports whether two rectangles have identical coordinates.
func (r *Rectangle) Equal(other *Rectangle) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.LLx == other.LLx && r.LLy == other.LLy &&
		r.URx == other.URx && r.URy == other.URy
}

// Contains checks if a point is within the rectangle.
func (r *Rectangle) Contains(point vec.Vec2) bool {
	return point.X >= r.LLx && point.X <= r.URx &&
		point.Y >= r.LLy && point.Y <= r.URy
}

// Extend enlarges the rectangle to also cover other.
func (r *Rectangle) Extend(other *Rectangle) {
	if other.IsZero() {
		return
	}
	if r.IsZero() {
		*r = *other
		return
	}
	if other.LLx < r.LLx {
		r.LLx = other.LLx
	}
	if other.LLy < r.LLy {
		r.LLy = other.LLy
	}
	if other.URx > r.URx {
		r.URx = other.URx
	}
	if other.URy > r.URy {
		r.URy = other.URy
	}
}

// GetMatrix resolves obj as a 6-number array and returns it as a 2-D affine
// transform matrix, following the convention [a b c d e f] of PDF 32000-1
// §8.3.4.
func GetMatrix(r Getter, obj Object) (m matrix.Matrix, err error) {
	defer func() {
		if err != nil {
			err = Wrap(err, "GetMatrix")
		}
	}()

	a, err := GetFloatArray(r, obj)
	if err != nil {
		return matrix.Matrix{}, err
	}
	if len(a) != 6 {
		return m, &MalformedFileError{Err: fmt.Errorf("expected 6 numbers, got %d", len(a))}
	}
	copy(m[:], a)
	return m, nil
}

// Info represents a PDF Document Information Dictionary (PDF 32000-1:2008
// §14.3.3). All fields are optional.
type Info struct {
	Title    TextString `pdf:"optional"`
	Author   TextString `pdf:"optional"`
	Subject  TextString `pdf:"optional"`
	Keywords TextString `pdf:"optional"`
	Creator  TextString `pdf:"optional"`
	Producer TextString `pdf:"optional"`

	CreationDate Date `pdf:"optional"`
	ModDate      Date `pdf:"optional"`

	Trapped Name `pdf:"optional"`
}
