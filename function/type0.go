package function

import (
	"fmt"

	"inkwell.dev/pdf"
)

// Type0 is a sampled function (PDF 32000-1:2008 §7.10.2): an m-dimensional
// grid of n-tuples, read by multilinear (or, for m=1, optionally cubic)
// interpolation between the nearest sample points.
type Type0 struct {
	Domain        []float64 // 2*m entries
	Range         []float64 // 2*n entries
	Size          []int     // m entries, >= 1 each
	BitsPerSample int       // 1, 2, 4, 8, 12, 16, 24, or 32
	UseCubic      bool      // cubic spline interpolation, only meaningful for m=1
	Encode        []float64 // 2*m entries, default 0..Size[i]-1
	Decode        []float64 // 2*n entries, default = Range
	Samples       []byte
}

func (f *Type0) NumInputs() int  { return pairs(f.Domain) }
func (f *Type0) NumOutputs() int { return pairs(f.Range) }

func (f *Type0) validate() error {
	m := f.NumInputs()
	n := f.NumOutputs()
	if m == 0 || n == 0 {
		return fmt.Errorf("function: type 0: /Domain and /Range are required")
	}
	if len(f.Size) != m {
		return fmt.Errorf("function: type 0: len(/Size)=%d, want %d (number of inputs)", len(f.Size), m)
	}
	switch f.BitsPerSample {
	case 1, 2, 4, 8, 12, 16, 24, 32:
	default:
		return fmt.Errorf("function: type 0: invalid /BitsPerSample %d", f.BitsPerSample)
	}
	for i := 0; i < m; i++ {
		if !isRange(f.Domain[2*i], f.Domain[2*i+1]) {
			return fmt.Errorf("function: type 0: invalid /Domain entry %d", i)
		}
		if f.Size[i] < 1 {
			return fmt.Errorf("function: type 0: /Size entry %d must be >= 1", i)
		}
	}
	want := 1
	for _, s := range f.Size {
		want *= s
	}
	want *= n
	bits := want * f.BitsPerSample
	need := (bits + 7) / 8
	if len(f.Samples) < need {
		return fmt.Errorf("function: type 0: /Samples too short: have %d bytes, need %d", len(f.Samples), need)
	}
	return nil
}

func (f *Type0) encodeDefault(i int) (float64, float64) {
	if len(f.Encode) >= 2*i+2 {
		return f.Encode[2*i], f.Encode[2*i+1]
	}
	return 0, float64(f.Size[i] - 1)
}

func (f *Type0) decodeDefault(j int) (float64, float64) {
	if len(f.Decode) >= 2*j+2 {
		return f.Decode[2*j], f.Decode[2*j+1]
	}
	return f.Range[2*j], f.Range[2*j+1]
}

// sampleMax is the maximum unsigned value a sample of f.BitsPerSample bits
// can hold.
func (f *Type0) sampleMax() float64 {
	return float64((uint64(1) << uint(f.BitsPerSample)) - 1)
}

func (f *Type0) Apply(out []float64, in ...float64) {
	m := f.NumInputs()
	n := f.NumOutputs()

	// clip and encode each input into a fractional grid coordinate.
	e := make([]float64, m)
	lo := make([]int, m)
	frac := make([]float64, m)
	for i := 0; i < m; i++ {
		x := clip(in[i], f.Domain[2*i], f.Domain[2*i+1])
		emin, emax := f.encodeDefault(i)
		ex := clip(interpolate(x, f.Domain[2*i], f.Domain[2*i+1], emin, emax), 0, float64(f.Size[i]-1))
		e[i] = ex
		l := int(ex)
		if l >= f.Size[i]-1 {
			l = maxInt(f.Size[i]-2, 0)
		}
		lo[i] = l
		frac[i] = ex - float64(l)
	}

	strides := make([]int, m)
	stride := 1
	for i := 0; i < m; i++ {
		strides[i] = stride
		stride *= f.Size[i]
	}

	if m == 1 && f.UseCubic {
		f.applyCubic(out, lo[0], frac[0], n)
	} else {
		f.applyMultilinear(out, lo, frac, strides, m, n)
	}

	for j := 0; j < n; j++ {
		dmin, dmax := f.decodeDefault(j)
		y := interpolate(out[j], 0, f.sampleMax(), dmin, dmax)
		if len(f.Range) >= 2*j+2 {
			y = clip(y, f.Range[2*j], f.Range[2*j+1])
		}
		out[j] = y
	}
}

func (f *Type0) applyMultilinear(out []float64, lo []int, frac []float64, strides []int, m, n int) {
	for j := 0; j < n; j++ {
		out[j] = 0
	}
	corners := 1 << uint(m)
	for c := 0; c < corners; c++ {
		weight := 1.0
		flat := 0
		for i := 0; i < m; i++ {
			bit := (c >> uint(i)) & 1
			idx := lo[i] + bit
			if idx >= f.Size[i] {
				idx = f.Size[i] - 1
			}
			flat += idx * strides[i]
			if bit == 1 {
				weight *= frac[i]
			} else {
				weight *= 1 - frac[i]
			}
		}
		if weight == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			out[j] += weight * f.readSample(flat, j, n)
		}
	}
}

// applyCubic implements Catmull-Rom interpolation for a 1-input function.
// At the grid's edges, where a full 4-point neighborhood isn't available,
// each missing neighbor is replaced by the nearest edge sample.
func (f *Type0) applyCubic(out []float64, lo int, frac float64, n int) {
	size := f.Size[0]
	idx := func(k int) int {
		if k < 0 {
			return 0
		}
		if k >= size {
			return size - 1
		}
		return k
	}
	for j := 0; j < n; j++ {
		p0 := f.readSample(idx(lo-1), j, n)
		p1 := f.readSample(idx(lo), j, n)
		p2 := f.readSample(idx(lo+1), j, n)
		p3 := f.readSample(idx(lo+2), j, n)
		out[j] = catmullRom(p0, p1, p2, p3, frac)
	}
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// readSample reads the j-th output component of the sample at flat grid
// index flat, given n outputs per sample point (PDF 32000-1 §7.10.2: sample
// data is packed as n consecutive BitsPerSample values per grid point, MSB
// first).
func (f *Type0) readSample(flat, j, n int) float64 {
	bitOffset := (flat*n + j) * f.BitsPerSample
	return float64(readBits(f.Samples, bitOffset, f.BitsPerSample))
}

// readBits reads a big-endian, MSB-first run of nbits bits starting at bit
// offset start.
func readBits(data []byte, start, nbits int) uint64 {
	var v uint64
	for i := 0; i < nbits; i++ {
		bitPos := start + i
		byteIdx := bitPos / 8
		if byteIdx >= len(data) {
			v <<= 1
			continue
		}
		bitIdx := 7 - uint(bitPos%8)
		bit := (data[byteIdx] >> bitIdx) & 1
		v = v<<1 | uint64(bit)
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func readType0(r pdf.Getter, dict pdf.Dict, s *pdf.Stream, domain, rng []float64) (*Type0, error) {
	sizeArr, err := pdf.GetArray(r, dict["Size"])
	if err != nil {
		return nil, pdf.Wrap(err, "function: type 0: /Size")
	}
	size := make([]int, len(sizeArr))
	for i, o := range sizeArr {
		n, err := pdf.GetInteger(r, o)
		if err != nil {
			return nil, err
		}
		size[i] = int(n)
	}
	bps, err := pdf.GetInteger(r, dict["BitsPerSample"])
	if err != nil {
		return nil, pdf.Wrap(err, "function: type 0: /BitsPerSample")
	}
	encode, err := floatArrayFromDict(r, dict, "Encode")
	if err != nil {
		return nil, err
	}
	decode, err := floatArrayFromDict(r, dict, "Decode")
	if err != nil {
		return nil, err
	}
	data, err := pdf.DecodeStream(r, s)
	if err != nil {
		return nil, pdf.Wrap(err, "function: type 0: sample data")
	}
	return &Type0{
		Domain:        domain,
		Range:         rng,
		Size:          size,
		BitsPerSample: int(bps),
		Encode:        encode,
		Decode:        decode,
		Samples:       data,
	}, nil
}
