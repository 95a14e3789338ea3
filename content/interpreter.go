package content

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/maps"

	"seehuhn.de/go/geom/matrix"

	"inkwell.dev/pdf"
)

// Handler receives the side-effecting operators an Interpreter executes:
// painting, text showing, XObjects and shadings. The Interpreter's handler
// may be nil, in which case graphics state is still tracked but nothing is
// drawn; a non-nil Handler has every method called, so an implementation
// that only cares about, say, path geometry leaves the other methods empty.
type Handler interface {
	PaintPath(gs *GraphicsState, path *PathBuilder, fill, stroke, evenOdd bool)
	ShowText(gs *GraphicsState, s pdf.String)
	ShowTextAdjusted(gs *GraphicsState, elements pdf.Array)
	XObject(gs *GraphicsState, name pdf.Name)
	Shading(gs *GraphicsState, name pdf.Name)
	InlineImage(gs *GraphicsState, dict pdf.Dict, data []byte)
}

// Interpreter executes a content stream's instructions against a stack of
// GraphicsState values, invoking Handler for the operators that actually
// draw something. It enforces PDF 32000-1:2008's structural invariants:
// q/Q balance, BT/ET non-nesting, BX/EX balance, and Tf having been called
// before any text-showing operator.
type Interpreter struct {
	stack   []GraphicsState
	path    PathBuilder
	clip    ClipIntent
	mcStack []pdf.Name
	bxDepth int
	handler Handler

	fontSet bool

	// resources is a stack of per-category resource dictionaries (Font,
	// ColorSpace, Shading, XObject, Pattern, ExtGState, Properties). Each
	// frame is the merge of its parent with the dictionary a caller pushed
	// for a nested content stream (a Form XObject or Type 3 glyph
	// procedure), so a name the nested /Resources doesn't redefine still
	// resolves against the page's resources.
	resources []map[pdf.Name]pdf.Dict

	// resolver follows indirect references inside resource dictionaries
	// (an ExtGState entry is commonly "5 0 R" rather than a direct dict).
	// Left nil, the interpreter still handles every resource entry that
	// happens to be direct; any reference it meets is then skipped rather
	// than dereferenced.
	resolver pdf.Getter
}

// SetResolver attaches a Getter the interpreter uses to follow indirect
// references met while applying a resource (currently just ExtGState
// dictionaries via the "gs" operator).
func (in *Interpreter) SetResolver(r pdf.Getter) {
	in.resolver = r
}

// resolve is pdf.Resolve guarded against a nil resolver: a direct object
// passes through either way, but a Reference with no resolver set resolves
// to nil instead of panicking on a nil Getter.
func (in *Interpreter) resolve(obj pdf.Object) (pdf.Object, error) {
	if _, isRef := obj.(pdf.Reference); isRef && in.resolver == nil {
		return nil, nil
	}
	return pdf.Resolve(in.resolver, obj)
}

// NewInterpreter creates an Interpreter with the PDF-default initial
// graphics state as its bottom stack frame.
func NewInterpreter(h Handler) *Interpreter {
	return &Interpreter{
		stack:   []GraphicsState{newGraphicsState()},
		handler: h,
	}
}

// GS returns the current graphics state.
func (in *Interpreter) GS() *GraphicsState {
	return &in.stack[len(in.stack)-1]
}

// PushResources enters a nested content stream's resource scope, merging
// res over whatever scope is currently active. Callers invoke this before
// running a Form XObject's or Type 3 glyph's content stream and call
// PopResources when it returns.
func (in *Interpreter) PushResources(res pdf.Dict) {
	var parent map[pdf.Name]pdf.Dict
	if len(in.resources) > 0 {
		parent = in.resources[len(in.resources)-1]
	}
	merged := make(map[pdf.Name]pdf.Dict, len(parent))
	for cat, d := range parent {
		merged[cat] = maps.Clone(d)
	}
	for cat, obj := range res {
		d, ok := obj.(pdf.Dict)
		if !ok {
			continue
		}
		if merged[cat] == nil {
			merged[cat] = make(pdf.Dict, len(d))
		}
		maps.Copy(merged[cat], d)
	}
	in.resources = append(in.resources, merged)
}

// PopResources leaves the resource scope most recently pushed.
func (in *Interpreter) PopResources() {
	if len(in.resources) == 0 {
		return
	}
	in.resources = in.resources[:len(in.resources)-1]
}

// Resource resolves name against the given resource category (Font,
// ColorSpace, Shading, XObject, Pattern, ExtGState, Properties) in the
// current scope.
func (in *Interpreter) Resource(category, name pdf.Name) (pdf.Object, bool) {
	if len(in.resources) == 0 {
		return nil, false
	}
	d, ok := in.resources[len(in.resources)-1][category]
	if !ok {
		return nil, false
	}
	obj, ok := d[name]
	return obj, ok
}

// Run executes every instruction in buf in order.
func (in *Interpreter) Run(buf []byte) error {
	tok := NewTokenizer(buf)
	for {
		inst, err := tok.Next()
		if err != nil {
			return err
		}
		if inst == nil {
			break
		}
		if inst.Operator == "BI" {
			dict, data, err := tok.readInlineImage()
			if err != nil {
				return err
			}
			if in.handler != nil {
				in.handler.InlineImage(in.GS(), dict, data)
			}
			continue
		}
		if err := in.exec(inst); err != nil {
			return err
		}
	}
	if len(in.stack) != 1 {
		return fmt.Errorf("content: %d unmatched q at end of stream", len(in.stack)-1)
	}
	if in.GS().Text.InTextBlock {
		return fmt.Errorf("content: BT without matching ET at end of stream")
	}
	if in.bxDepth != 0 {
		return fmt.Errorf("content: %d unmatched BX at end of stream", in.bxDepth)
	}
	return nil
}

func (in *Interpreter) exec(inst *Instruction) error {
	want, known := arity[inst.Operator]
	if !known {
		if in.bxDepth > 0 {
			// unrecognized operators inside a BX/EX compatibility section
			// are ignored along with their operands, per PDF 32000-1 §8.2.
			return nil
		}
		return &ErrUnknownOperator{Operator: inst.Operator}
	}
	if want >= 0 && len(inst.Operands) < want {
		return &ErrOperandCount{Operator: inst.Operator, Got: len(inst.Operands), Want: want}
	}
	if want >= 0 && len(inst.Operands) > want {
		return &ErrOperandCount{Operator: inst.Operator, Got: len(inst.Operands), Want: want, Excess: true}
	}

	ops := inst.Operands
	num := func(i int) float64 { return numOperand(ops[i]) }

	switch inst.Operator {
	case "q":
		in.stack = append(in.stack, in.GS().clone())
	case "Q":
		if len(in.stack) <= 1 {
			return fmt.Errorf("content: Q without matching q")
		}
		in.stack = in.stack[:len(in.stack)-1]
	case "cm":
		m := matrix.Matrix{num(0), num(1), num(2), num(3), num(4), num(5)}
		in.GS().CTM = m.Mul(in.GS().CTM)

	case "w":
		in.GS().LineWidth = num(0)
	case "J":
		in.GS().LineCap = int(num(0))
	case "j":
		in.GS().LineJoin = int(num(0))
	case "M":
		in.GS().MiterLimit = num(0)
	case "d":
		arr, _ := ops[0].(pdf.Array)
		dash := make([]float64, len(arr))
		for i, o := range arr {
			dash[i] = numOperand(o)
		}
		in.GS().DashArray = dash
		in.GS().DashPhase = num(1)
	case "ri":
		in.GS().RenderingIntent, _ = ops[0].(pdf.Name)
	case "i":
		// flatness tolerance: accepted, has no effect without a rasterizer
		// tied to a device resolution.
	case "gs":
		name, _ := ops[0].(pdf.Name)
		in.applyExtGState(name)

	case "m":
		in.path.MoveTo(num(0), num(1))
	case "l":
		in.path.LineTo(num(0), num(1))
	case "c":
		in.path.CurveTo(num(0), num(1), num(2), num(3), num(4), num(5))
	case "v":
		in.path.CurveToV(num(0), num(1), num(2), num(3))
	case "y":
		in.path.CurveToY(num(0), num(1), num(2), num(3))
	case "h":
		in.path.ClosePath()
	case "re":
		in.path.Rect(num(0), num(1), num(2), num(3))

	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*", "n":
		in.paint(inst.Operator)

	case "W":
		in.clip = ClipIntent{Pending: true, EvenOdd: false}
	case "W*":
		in.clip = ClipIntent{Pending: true, EvenOdd: true}

	case "BT":
		if in.GS().Text.InTextBlock {
			return fmt.Errorf("content: nested BT")
		}
		in.GS().Text.InTextBlock = true
		in.GS().Text.Tm = matrix.Identity
		in.GS().Text.Tlm = matrix.Identity
	case "ET":
		if !in.GS().Text.InTextBlock {
			return fmt.Errorf("content: ET without matching BT")
		}
		in.GS().Text.InTextBlock = false

	case "Tc":
		in.GS().Text.CharSpace = num(0)
	case "Tw":
		in.GS().Text.WordSpace = num(0)
	case "Tz":
		in.GS().Text.HScale = num(0) / 100
	case "TL":
		in.GS().Text.Leading = num(0)
	case "Tf":
		name, _ := ops[0].(pdf.Name)
		in.GS().Text.Font = name
		in.GS().Text.FontSize = num(1)
		in.fontSet = true
	case "Tr":
		in.GS().Text.RenderMode = int(num(0))
	case "Ts":
		in.GS().Text.Rise = num(0)

	case "Td":
		m := matrix.Matrix{1, 0, 0, 1, num(0), num(1)}.Mul(in.GS().Text.Tlm)
		in.GS().Text.Tlm = m
		in.GS().Text.Tm = m
	case "TD":
		in.GS().Text.Leading = -num(1)
		m := matrix.Matrix{1, 0, 0, 1, num(0), num(1)}.Mul(in.GS().Text.Tlm)
		in.GS().Text.Tlm = m
		in.GS().Text.Tm = m
	case "Tm":
		m := matrix.Matrix{num(0), num(1), num(2), num(3), num(4), num(5)}
		in.GS().Text.Tlm = m
		in.GS().Text.Tm = m
	case "T*":
		m := matrix.Matrix{1, 0, 0, 1, 0, -in.GS().Text.Leading}.Mul(in.GS().Text.Tlm)
		in.GS().Text.Tlm = m
		in.GS().Text.Tm = m

	case "Tj":
		if err := in.requireFont(); err != nil {
			return err
		}
		s, _ := ops[0].(pdf.String)
		if in.handler != nil {
			in.handler.ShowText(in.GS(), s)
		}
	case "'":
		if err := in.requireFont(); err != nil {
			return err
		}
		m := matrix.Matrix{1, 0, 0, 1, 0, -in.GS().Text.Leading}.Mul(in.GS().Text.Tlm)
		in.GS().Text.Tlm = m
		in.GS().Text.Tm = m
		s, _ := ops[0].(pdf.String)
		if in.handler != nil {
			in.handler.ShowText(in.GS(), s)
		}
	case "\"":
		in.GS().Text.WordSpace = num(0)
		in.GS().Text.CharSpace = num(1)
		if err := in.requireFont(); err != nil {
			return err
		}
		m := matrix.Matrix{1, 0, 0, 1, 0, -in.GS().Text.Leading}.Mul(in.GS().Text.Tlm)
		in.GS().Text.Tlm = m
		in.GS().Text.Tm = m
		s, _ := ops[2].(pdf.String)
		if in.handler != nil {
			in.handler.ShowText(in.GS(), s)
		}
	case "TJ":
		if err := in.requireFont(); err != nil {
			return err
		}
		arr, _ := ops[0].(pdf.Array)
		if in.handler != nil {
			in.handler.ShowTextAdjusted(in.GS(), arr)
		}

	case "d0":
		// glyph width only: type 3 font metrics, no imaging effect here.
	case "d1":
		// glyph width and bounding box: ditto.

	case "CS":
		in.GS().Stroke.Space, _ = ops[0].(pdf.Name)
	case "cs":
		in.GS().Fill.Space, _ = ops[0].(pdf.Name)
	case "SC", "SCN":
		in.setColor(&in.GS().Stroke, ops)
	case "sc", "scn":
		in.setColor(&in.GS().Fill, ops)
	case "G":
		in.GS().Stroke = ColorState{Space: "DeviceGray", Components: []float64{num(0)}}
	case "g":
		in.GS().Fill = ColorState{Space: "DeviceGray", Components: []float64{num(0)}}
	case "RG":
		in.GS().Stroke = ColorState{Space: "DeviceRGB", Components: []float64{num(0), num(1), num(2)}}
	case "rg":
		in.GS().Fill = ColorState{Space: "DeviceRGB", Components: []float64{num(0), num(1), num(2)}}
	case "K":
		in.GS().Stroke = ColorState{Space: "DeviceCMYK", Components: []float64{num(0), num(1), num(2), num(3)}}
	case "k":
		in.GS().Fill = ColorState{Space: "DeviceCMYK", Components: []float64{num(0), num(1), num(2), num(3)}}

	case "sh":
		name, _ := ops[0].(pdf.Name)
		if in.handler != nil {
			in.handler.Shading(in.GS(), name)
		}
	case "Do":
		name, _ := ops[0].(pdf.Name)
		if in.handler != nil {
			in.handler.XObject(in.GS(), name)
		}

	case "MP", "DP":
		// point-level marked content, no stack effect.
	case "BMC", "BDC":
		tag, _ := ops[0].(pdf.Name)
		in.mcStack = append(in.mcStack, tag)
	case "EMC":
		if len(in.mcStack) == 0 {
			return fmt.Errorf("content: EMC without matching BMC/BDC")
		}
		in.mcStack = in.mcStack[:len(in.mcStack)-1]

	case "BX":
		in.bxDepth++
	case "EX":
		if in.bxDepth == 0 {
			return fmt.Errorf("content: EX without matching BX")
		}
		in.bxDepth--

	default:
		return &ErrUnknownOperator{Operator: inst.Operator}
	}
	return nil
}

func (in *Interpreter) requireFont() error {
	if !in.fontSet {
		return fmt.Errorf("content: text-showing operator used before Tf set a font")
	}
	return nil
}

// applyExtGState merges the named ExtGState resource (PDF 32000-1:2008
// §8.4.5) into the current graphics state: /ca and /CA set the fill and
// stroke constant alpha, /SMask sets (or, as the name /None, clears) the
// soft mask. Other ExtGState entries (overprint, blend mode, line
// parameters already covered by w/J/j/M/d) are accepted without effect,
// since nothing downstream acts on them yet.
func (in *Interpreter) applyExtGState(name pdf.Name) {
	obj, ok := in.Resource("ExtGState", name)
	if !ok {
		return
	}
	dict, err := in.resolveDict(obj)
	if err != nil || dict == nil {
		return
	}

	gs := in.GS()
	if v, ok := in.resolveNumber(dict["ca"]); ok {
		gs.Alpha = float64(v)
	}
	if v, ok := in.resolveNumber(dict["CA"]); ok {
		gs.AlphaS = float64(v)
	}
	if sm, present := dict["SMask"]; present {
		if n, isName := sm.(pdf.Name); isName && n == "None" {
			gs.SoftMask = nil
		} else {
			gs.SoftMask = sm
		}
	}
}

func (in *Interpreter) resolveDict(obj pdf.Object) (pdf.Dict, error) {
	resolved, err := in.resolve(obj)
	if err != nil || resolved == nil {
		return nil, err
	}
	dict, ok := resolved.(pdf.Dict)
	if !ok {
		return nil, nil
	}
	return dict, nil
}

func (in *Interpreter) resolveNumber(obj pdf.Object) (pdf.Number, bool) {
	if obj == nil {
		return 0, false
	}
	resolved, err := in.resolve(obj)
	if err != nil || resolved == nil {
		return 0, false
	}
	switch v := resolved.(type) {
	case pdf.Integer:
		return pdf.Number(v), true
	case pdf.Real:
		return pdf.Number(v), true
	default:
		return 0, false
	}
}

func (in *Interpreter) setColor(cs *ColorState, ops []pdf.Object) {
	var comps []float64
	var pattern pdf.Name
	for _, o := range ops {
		if n, ok := o.(pdf.Name); ok {
			pattern = n
			continue
		}
		comps = append(comps, numOperand(o))
	}
	cs.Components = comps
	cs.Pattern = pattern
}

func (in *Interpreter) paint(op string) {
	fill := op == "f" || op == "F" || op == "f*" || op == "B" || op == "B*" || op == "b" || op == "b*"
	stroke := op == "S" || op == "s" || op == "B" || op == "B*" || op == "b" || op == "b*"
	evenOdd := op == "f*" || op == "B*" || op == "b*"
	if op == "s" || op == "b" || op == "b*" {
		in.path.ClosePath()
	}
	if in.handler != nil && !in.path.Empty() {
		in.handler.PaintPath(in.GS(), &in.path, fill, stroke, evenOdd || (in.clip.Pending && in.clip.EvenOdd))
	}
	if in.clip.Pending {
		// W/W* establishes no clip region: the request is dropped here,
		// once the path has been painted (or discarded by "n").
		in.clip.Pending = false
	}
	in.path.Reset()
}

func numOperand(o pdf.Object) float64 {
	switch v := o.(type) {
	case pdf.Integer:
		return float64(v)
	case pdf.Real:
		return float64(v)
	}
	return 0
}

// readInlineImage parses a BI...ID...EI inline image: a dictionary written
// as bare "/Key value" pairs (no enclosing << >>) followed by the ID
// keyword, one whitespace byte, the raw (optionally filtered) image data,
// and the EI keyword.
func (t *Tokenizer) readInlineImage() (pdf.Dict, []byte, error) {
	dict := make(pdf.Dict)
	pos := t.pos
	for {
		p, err := skipWhiteSpace(t.ctx, pos)
		if err != nil {
			return nil, nil, err
		}
		pos = p

		end, err := readOperatorToken(t.ctx, pos)
		if err != nil {
			return nil, nil, err
		}
		if end > pos {
			raw, err := t.ctx.Bytes(pos, end, true)
			if err != nil {
				return nil, nil, err
			}
			if string(raw) == "ID" {
				pos = end
				break
			}
		}

		p2, keyObj, err := t.ctx.ParseObject(pos)
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyObj.(pdf.Name)
		if !ok {
			return nil, nil, fmt.Errorf("content: inline image dictionary key is not a name at offset %d", pos)
		}
		pos = p2

		pos, err = skipWhiteSpace(t.ctx, pos)
		if err != nil {
			return nil, nil, err
		}
		p3, val, err := t.ctx.ParseObject(pos)
		if err != nil {
			return nil, nil, err
		}
		dict[key] = val
		pos = p3
	}

	// exactly one whitespace byte separates "ID" from the binary data.
	b, err := t.ctx.Bytes(pos, pos+1, true)
	if err != nil {
		return nil, nil, err
	}
	if len(b) > 0 && isSpaceByte(b[0]) {
		pos++
	}

	rest, err := t.ctx.Bytes(pos, t.ctx.Len(), true)
	if err != nil {
		return nil, nil, err
	}
	idx, ei := findEI(rest)
	if idx < 0 {
		return nil, nil, fmt.Errorf("content: inline image missing EI terminator")
	}
	data := rest[:idx]
	t.pos = pos + int64(ei) + 2
	return dict, data, nil
}

// findEI locates the "EI" token that ends an inline image's binary data: an
// "EI" preceded by whitespace (or at the very start) and followed by
// whitespace or end of buffer, since raw image data may itself contain the
// byte sequence "EI". It returns the end of the image data (with the
// whitespace before EI trimmed off) and the offset of the EI token itself,
// or -1 for both when no EI is found.
func findEI(buf []byte) (int, int) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] != 'E' || buf[i+1] != 'I' {
			continue
		}
		if i > 0 && !isSpaceByte(buf[i-1]) {
			continue
		}
		if i+2 < len(buf) && !isSpaceByte(buf[i+2]) {
			continue
		}
		end := i
		for end > 0 && isSpaceByte(buf[end-1]) {
			end--
		}
		return end, i
	}
	j := bytes.LastIndex(buf, []byte("EI"))
	return j, j
}
