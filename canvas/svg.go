package canvas

import (
	"fmt"
	"os"
	"strings"

	"inkwell.dev/pdf/content"
)

// SVG is a scalable Canvas emitting a single <svg> document: one element
// per drawing call, no rasterization.
type SVG struct {
	width, height int
	rasterRes     float64
	elements      []string
	clipDepth     int
}

// NewSVG creates a scalable canvas w x h user-space units, with background
// and rasterRes (advisory only: scalable canvases have no fixed pixel
// grid, but callers may still want a nominal device resolution reported).
func NewSVG(w, h int, background RGBA, rasterRes float64) *SVG {
	s := &SVG{width: w, height: h, rasterRes: rasterRes}
	s.elements = append(s.elements, fmt.Sprintf(
		`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		w, h, hexRGBA(background)))
	return s
}

func (s *SVG) IsRaster() bool      { return false }
func (s *SVG) RasterRes() float64 { return s.rasterRes }

func (s *SVG) DrawPath(path *content.PathBuilder, brush Brush, evenOdd bool) {
	d := pathData(path, s.height)
	if d == "" {
		return
	}
	var attrs []string
	if brush.EnableFill {
		attrs = append(attrs, fmt.Sprintf(`fill="%s"`, hexRGBA(brush.FillColor)))
	} else {
		attrs = append(attrs, `fill="none"`)
	}
	if evenOdd {
		attrs = append(attrs, `fill-rule="evenodd"`)
	}
	if brush.EnableStroke {
		attrs = append(attrs,
			fmt.Sprintf(`stroke="%s"`, hexRGBA(brush.StrokeColor)),
			fmt.Sprintf(`stroke-width="%s"`, trimFloat(brush.StrokeWidth)),
			fmt.Sprintf(`stroke-linecap="%s"`, svgLineCap(brush.LineCap)),
			fmt.Sprintf(`stroke-linejoin="%s"`, svgLineJoin(brush.LineJoin)),
			fmt.Sprintf(`stroke-miterlimit="%s"`, trimFloat(brush.MiterLimit)),
		)
	}
	s.elements = append(s.elements, fmt.Sprintf(`<path d="%s" %s/>`, d, strings.Join(attrs, " ")))
}

func (s *SVG) DrawPixel(x, y int, c RGBA) {
	s.elements = append(s.elements, fmt.Sprintf(
		`<rect x="%d" y="%d" width="1" height="1" fill="%s"/>`, x, s.height-1-y, hexRGBA(c)))
}

func (s *SVG) PushClipPath(path *content.PathBuilder, evenOdd bool) {
	s.clipDepth++
	id := fmt.Sprintf("clip%d", s.clipDepth)
	rule := ""
	if evenOdd {
		rule = ` clip-rule="evenodd"`
	}
	s.elements = append(s.elements, fmt.Sprintf(
		`<clipPath id="%s"><path d="%s"%s/></clipPath><g clip-path="url(#%s)">`,
		id, pathData(path, s.height), rule, id))
}

func (s *SVG) PopClipPaths(n int) {
	for i := 0; i < n && s.clipDepth > 0; i++ {
		s.elements = append(s.elements, `</g>`)
		s.clipDepth--
	}
}

func (s *SVG) WriteFile(path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, s.width, s.height)
	for _, el := range s.elements {
		b.WriteString(el)
		b.WriteByte('\n')
	}
	b.WriteString(`</svg>`)
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func pathData(path *content.PathBuilder, height int) string {
	var b strings.Builder
	flip := func(p content.Point) (float64, float64) {
		return p.X, float64(height) - p.Y
	}
	for _, seg := range path.Segments {
		switch seg.Op {
		case 'm':
			x, y := flip(seg.Points[0])
			fmt.Fprintf(&b, "M%s,%s ", trimFloat(x), trimFloat(y))
		case 'l':
			x, y := flip(seg.Points[0])
			fmt.Fprintf(&b, "L%s,%s ", trimFloat(x), trimFloat(y))
		case 'c':
			x1, y1 := flip(seg.Points[0])
			x2, y2 := flip(seg.Points[1])
			x3, y3 := flip(seg.Points[2])
			fmt.Fprintf(&b, "C%s,%s %s,%s %s,%s ",
				trimFloat(x1), trimFloat(y1), trimFloat(x2), trimFloat(y2), trimFloat(x3), trimFloat(y3))
		case 'h':
			b.WriteString("Z ")
		}
	}
	return strings.TrimSpace(b.String())
}

func svgLineCap(c LineCap) string {
	switch c {
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	default:
		return "butt"
	}
}

func svgLineJoin(j LineJoin) string {
	switch j {
	case JoinRound:
		return "round"
	case JoinBevel:
		return "bevel"
	default:
		return "miter"
	}
}

func hexRGBA(c RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x",
		uint8(clamp255(c.R)), uint8(clamp255(c.G)), uint8(clamp255(c.B)), uint8(clamp255(c.A)))
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
