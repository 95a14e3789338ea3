package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/vector"

	"inkwell.dev/pdf/content"
)

// Raster is a raster Canvas backed by golang.org/x/image/vector for path
// filling and a plain image.RGBA frame buffer.
type Raster struct {
	img        *image.RGBA
	raster     *vector.Rasterizer
	width      int
	height     int
	coordScale float64 // device pixels per user-space unit
	clips      []clipMask
}

type clipMask struct {
	mask *image.Alpha
	// evenOdd records the requested fill rule; vector.Rasterizer only
	// implements nonzero winding (same limitation the source's own
	// rasterizer carries), so this is currently advisory only.
	evenOdd bool
}

// NewRaster creates a raster canvas w x h pixels, filled with background,
// with coordScale device pixels per user-space unit.
func NewRaster(w, h int, background RGBA, coordScale float64) *Raster {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(toGoColor(background)), image.Point{}, draw.Src)
	return &Raster{
		img:        img,
		raster:     vector.NewRasterizer(w, h),
		width:      w,
		height:     h,
		coordScale: coordScale,
	}
}

func (r *Raster) IsRaster() bool      { return true }
func (r *Raster) RasterRes() float64 { return r.coordScale }

func (r *Raster) DrawPath(path *content.PathBuilder, brush Brush, evenOdd bool) {
	if brush.EnableFill {
		r.rasterize(path)
		r.drawMasked(image.NewUniform(toGoColor(brush.FillColor)))
	}
	if brush.EnableStroke {
		r.rasterizeStroke(path, brush)
		r.drawMasked(image.NewUniform(toGoColor(brush.StrokeColor)))
	}
}

// drawMasked draws src through r.raster's current coverage, further
// intersected with the innermost active clip mask (if any).
func (r *Raster) drawMasked(src image.Image) {
	if len(r.clips) == 0 {
		r.raster.Draw(r.img, r.img.Bounds(), src, image.Point{})
		return
	}
	coverage := image.NewAlpha(r.img.Bounds())
	r.raster.Draw(coverage, coverage.Bounds(), image.NewUniform(color.Alpha{A: 255}), image.Point{})
	clip := r.clips[len(r.clips)-1].mask
	for i := range coverage.Pix {
		if clip.Pix[i] == 0 {
			coverage.Pix[i] = 0
		}
	}
	draw.DrawMask(r.img, r.img.Bounds(), src, image.Point{}, coverage, image.Point{}, draw.Over)
}

func (r *Raster) rasterize(path *content.PathBuilder) {
	r.raster.Reset(r.width, r.height)
	for _, seg := range path.Segments {
		switch seg.Op {
		case 'm':
			p := r.toDevice(seg.Points[0])
			r.raster.MoveTo(float32(p.X), float32(p.Y))
		case 'l':
			p := r.toDevice(seg.Points[0])
			r.raster.LineTo(float32(p.X), float32(p.Y))
		case 'c':
			p1 := r.toDevice(seg.Points[0])
			p2 := r.toDevice(seg.Points[1])
			p3 := r.toDevice(seg.Points[2])
			r.raster.CubeTo(float32(p1.X), float32(p1.Y), float32(p2.X), float32(p2.Y), float32(p3.X), float32(p3.Y))
		case 'h':
			r.raster.ClosePath()
		}
	}
}

// rasterizeStroke approximates stroking by emitting a filled quad per line
// segment (curves are chord-approximated), matching the source's own
// stroke rendering approach.
func (r *Raster) rasterizeStroke(path *content.PathBuilder, brush Brush) {
	r.raster.Reset(r.width, r.height)
	w := brush.StrokeWidth * r.coordScale / 2
	if w < 0.5 {
		w = 0.5
	}

	var cur, start content.Point
	haveCur := false
	emit := func(dest content.Point) {
		if !haveCur {
			cur = dest
			return
		}
		a, b := r.toDevice(cur), r.toDevice(dest)
		vx, vy := b.X-a.X, b.Y-a.Y
		vl := hypot(vx, vy)
		if vl > 0 {
			nx, ny := -vy/vl*w, vx/vl*w
			r.raster.MoveTo(float32(a.X+nx), float32(a.Y+ny))
			r.raster.LineTo(float32(b.X+nx), float32(b.Y+ny))
			r.raster.LineTo(float32(b.X-nx), float32(b.Y-ny))
			r.raster.LineTo(float32(a.X-nx), float32(a.Y-ny))
			r.raster.ClosePath()
		}
		cur = dest
	}

	for _, seg := range path.Segments {
		switch seg.Op {
		case 'm':
			cur = seg.Points[0]
			start = cur
			haveCur = true
		case 'l':
			emit(seg.Points[0])
		case 'c':
			emit(seg.Points[2])
		case 'h':
			emit(start)
		}
	}
}

func hypot(x, y float64) float64 {
	return sqrt(x*x + y*y)
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// toDevice maps a path coordinate, as recorded by the PathBuilder, to pixel
// coordinates: it scales by coordScale and flips Y, since PDF user space is
// bottom-up and image.RGBA is top-down. No other transform (such as the
// CTM) is applied.
func (r *Raster) toDevice(p content.Point) content.Point {
	return content.Point{
		X: p.X * r.coordScale,
		Y: float64(r.height) - p.Y*r.coordScale,
	}
}

func (r *Raster) DrawPixel(x, y int, c RGBA) {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return
	}
	py := r.height - 1 - y
	if len(r.clips) > 0 {
		clip := r.clips[len(r.clips)-1].mask
		if clip.AlphaAt(x, py).A == 0 {
			return
		}
	}
	r.img.Set(x, py, toGoColor(c))
}

func (r *Raster) PushClipPath(path *content.PathBuilder, evenOdd bool) {
	r.rasterize(path)
	mask := image.NewAlpha(r.img.Bounds())
	r.raster.Draw(mask, mask.Bounds(), image.NewUniform(color.Alpha{A: 255}), image.Point{})
	if len(r.clips) > 0 {
		prev := r.clips[len(r.clips)-1].mask
		for i := range mask.Pix {
			if prev.Pix[i] == 0 {
				mask.Pix[i] = 0
			}
		}
	}
	r.clips = append(r.clips, clipMask{mask: mask, evenOdd: evenOdd})
}

func (r *Raster) PopClipPaths(n int) {
	if n > len(r.clips) {
		n = len(r.clips)
	}
	r.clips = r.clips[:len(r.clips)-n]
}

func (r *Raster) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, r.img)
}

func toGoColor(c RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(clamp255(c.R)),
		G: uint8(clamp255(c.G)),
		B: uint8(clamp255(c.B)),
		A: uint8(clamp255(c.A)),
	}
}

func clamp255(x float64) float64 {
	x *= 255
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}
