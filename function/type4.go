package function

import (
	"fmt"
	"io"
	"math"
	"strings"

	"seehuhn.de/go/postscript"

	"inkwell.dev/pdf"
)

// Type4 is a PostScript calculator function (PDF 32000-1:2008 §7.10.5): a
// small, side-effect-free subset of the PostScript language (arithmetic,
// comparison, stack and boolean operators, plus if/ifelse) operating on a
// single numeric operand stack. Program text is lexed with
// seehuhn.de/go/postscript's object scanner, the same tokenizer the
// PostScript/Type 1 font stack uses, and interpreted directly: the
// calculator subset has no procedures worth delegating beyond lexing.
type Type4 struct {
	Domain  []float64
	Range   []float64
	Program string

	prog []psNode // parsed lazily, cached here
}

func (f *Type4) NumInputs() int  { return pairs(f.Domain) }
func (f *Type4) NumOutputs() int { return pairs(f.Range) }

func (f *Type4) validate() error {
	m := f.NumInputs()
	n := f.NumOutputs()
	if m == 0 || n == 0 {
		return fmt.Errorf("function: type 4: /Domain and /Range are required")
	}
	if _, err := f.parsed(); err != nil {
		return fmt.Errorf("function: type 4: %w", err)
	}
	return nil
}

func (f *Type4) parsed() ([]psNode, error) {
	if f.prog != nil {
		return f.prog, nil
	}
	toks, err := tokenizeProgram(f.Program)
	if err != nil {
		return nil, err
	}
	// the function's entire program is itself one PostScript procedure,
	// "{ ... }"; the outer braces are not part of the instruction sequence.
	if len(toks) > 0 && toks[0].kind == "{" {
		toks = toks[1:]
	}
	if len(toks) > 0 && toks[len(toks)-1].kind == "}" {
		toks = toks[:len(toks)-1]
	}
	nodes, rest, err := parseProcBody(toks)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("unexpected trailing tokens after program body")
	}
	f.prog = nodes
	return nodes, nil
}

func (f *Type4) Apply(out []float64, in ...float64) {
	m := f.NumInputs()
	n := f.NumOutputs()

	stack := make([]float64, m)
	for i := 0; i < m; i++ {
		stack[i] = clip(in[i], f.Domain[2*i], f.Domain[2*i+1])
	}

	prog, err := f.parsed()
	if err != nil {
		// validate() is expected to have already rejected a malformed
		// program; a parse failure surfacing here means the caller built
		// a Type4 by hand and skipped validation.
		for j := 0; j < n; j++ {
			out[j] = 0
		}
		return
	}

	stack = execProgram(prog, stack)

	if len(stack) < n {
		pad := make([]float64, n-len(stack))
		stack = append(pad, stack...)
	}
	result := stack[len(stack)-n:]
	for j := 0; j < n; j++ {
		y := result[j]
		if len(f.Range) >= 2*j+2 {
			y = clip(y, f.Range[2*j], f.Range[2*j+1])
		}
		out[j] = y
	}
}

func readType4(r pdf.Getter, dict pdf.Dict, s *pdf.Stream, domain, rng []float64) (*Type4, error) {
	data, err := pdf.DecodeStream(r, s)
	if err != nil {
		return nil, pdf.Wrap(err, "function: type 4: program")
	}
	return &Type4{Domain: domain, Range: rng, Program: string(data)}, nil
}

// --- calculator language -------------------------------------------------

// psToken is one lexical token of the calculator subset: a number, an
// operator name, or a procedure delimiter.
type psToken struct {
	kind string // "num", "op", "{", "}"
	num  float64
	op   string
}

func tokenizeProgram(src string) ([]psToken, error) {
	scanner := postscript.NewScanner(strings.NewReader(src))
	var toks []psToken
	for {
		obj, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tokenizing calculator program: %w", err)
		}
		switch v := obj.(type) {
		case postscript.Real:
			toks = append(toks, psToken{kind: "num", num: float64(v)})
		case postscript.Integer:
			toks = append(toks, psToken{kind: "num", num: float64(v)})
		case postscript.Operator:
			name := string(v)
			switch name {
			case "{":
				toks = append(toks, psToken{kind: "{"})
			case "}":
				toks = append(toks, psToken{kind: "}"})
			default:
				toks = append(toks, psToken{kind: "op", op: name})
			}
		default:
			return nil, fmt.Errorf("unsupported token %T in calculator program", obj)
		}
	}
	return toks, nil
}

// psNode is one parsed instruction: either a literal number, an operator, or
// (for if/ifelse) one or two nested procedure bodies.
type psNode struct {
	num      float64
	isNum    bool
	op       string
	proc1    []psNode
	proc2    []psNode
	hasProc2 bool
}

// parseProcBody parses a top-level or nested sequence of tokens up to (but
// not including) the next unmatched "}", consuming "{ ... } { ... } ifelse"
// and "{ ... } if" as single nodes.
func parseProcBody(toks []psToken) ([]psNode, []psToken, error) {
	var nodes []psNode
	for len(toks) > 0 {
		t := toks[0]
		switch t.kind {
		case "}":
			return nodes, toks, nil
		case "num":
			nodes = append(nodes, psNode{num: t.num, isNum: true})
			toks = toks[1:]
		case "{":
			proc1, rest, err := parseProcBody(toks[1:])
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0].kind != "}" {
				return nil, nil, fmt.Errorf("unterminated procedure")
			}
			rest = rest[1:]

			if len(rest) > 0 && rest[0].kind == "{" {
				proc2, rest2, err := parseProcBody(rest[1:])
				if err != nil {
					return nil, nil, err
				}
				if len(rest2) == 0 || rest2[0].kind != "}" {
					return nil, nil, fmt.Errorf("unterminated procedure")
				}
				rest2 = rest2[1:]
				if len(rest2) == 0 || rest2[0].kind != "op" || rest2[0].op != "ifelse" {
					return nil, nil, fmt.Errorf("expected \"ifelse\" after two procedures")
				}
				nodes = append(nodes, psNode{op: "ifelse", proc1: proc1, proc2: proc2, hasProc2: true})
				toks = rest2[1:]
				continue
			}

			if len(rest) == 0 || rest[0].kind != "op" || rest[0].op != "if" {
				return nil, nil, fmt.Errorf("expected \"if\" after procedure")
			}
			nodes = append(nodes, psNode{op: "if", proc1: proc1})
			toks = rest[1:]
		case "op":
			nodes = append(nodes, psNode{op: t.op})
			toks = toks[1:]
		}
	}
	return nodes, toks, nil
}

func execProgram(prog []psNode, stack []float64) []float64 {
	for _, n := range prog {
		stack = execNode(n, stack)
	}
	return stack
}

func pop(stack []float64) ([]float64, float64) {
	if len(stack) == 0 {
		return stack, 0
	}
	return stack[:len(stack)-1], stack[len(stack)-1]
}

func push(stack []float64, v float64) []float64 {
	return append(stack, v)
}

func boolToNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func execNode(n psNode, stack []float64) []float64 {
	if n.isNum {
		return push(stack, n.num)
	}

	switch n.op {
	case "if":
		var cond float64
		stack, cond = pop(stack)
		if cond != 0 {
			stack = execProgram(n.proc1, stack)
		}
		return stack
	case "ifelse":
		var cond float64
		stack, cond = pop(stack)
		if cond != 0 {
			return execProgram(n.proc1, stack)
		}
		return execProgram(n.proc2, stack)
	}

	return execOperator(n.op, stack)
}

func execOperator(op string, stack []float64) []float64 {
	one := func(f func(float64) float64) []float64 {
		var a float64
		stack, a = pop(stack)
		return push(stack, f(a))
	}
	two := func(f func(a, b float64) float64) []float64 {
		var a, b float64
		stack, b = pop(stack)
		stack, a = pop(stack)
		return push(stack, f(a, b))
	}
	twoInt := func(f func(a, b int64) int64) []float64 {
		var a, b float64
		stack, b = pop(stack)
		stack, a = pop(stack)
		return push(stack, float64(f(int64(a), int64(b))))
	}

	switch op {
	// arithmetic
	case "add":
		return two(func(a, b float64) float64 { return a + b })
	case "sub":
		return two(func(a, b float64) float64 { return a - b })
	case "mul":
		return two(func(a, b float64) float64 { return a * b })
	case "div":
		return two(func(a, b float64) float64 {
			if b == 0 {
				return 0
			}
			return a / b
		})
	case "idiv":
		return twoInt(func(a, b int64) int64 {
			if b == 0 {
				return 0
			}
			return a / b
		})
	case "mod":
		return twoInt(func(a, b int64) int64 {
			if b == 0 {
				return 0
			}
			return a % b
		})
	case "neg":
		return one(func(a float64) float64 { return -a })
	case "abs":
		return one(math.Abs)
	case "ceiling":
		return one(math.Ceil)
	case "floor":
		return one(math.Floor)
	case "round":
		return one(math.Round)
	case "truncate":
		return one(math.Trunc)
	case "sqrt":
		return one(math.Sqrt)
	case "sin":
		return one(func(a float64) float64 { return math.Sin(a * math.Pi / 180) })
	case "cos":
		return one(func(a float64) float64 { return math.Cos(a * math.Pi / 180) })
	case "atan":
		return two(func(num, den float64) float64 {
			deg := math.Atan2(num, den) * 180 / math.Pi
			if deg < 0 {
				deg += 360
			}
			return deg
		})
	case "exp":
		return two(math.Pow)
	case "ln":
		return one(math.Log)
	case "log":
		return one(math.Log10)
	case "cvi":
		return one(math.Trunc)
	case "cvr":
		return stack

	// comparison
	case "eq":
		return two(func(a, b float64) float64 { return boolToNum(a == b) })
	case "ne":
		return two(func(a, b float64) float64 { return boolToNum(a != b) })
	case "gt":
		return two(func(a, b float64) float64 { return boolToNum(a > b) })
	case "ge":
		return two(func(a, b float64) float64 { return boolToNum(a >= b) })
	case "lt":
		return two(func(a, b float64) float64 { return boolToNum(a < b) })
	case "le":
		return two(func(a, b float64) float64 { return boolToNum(a <= b) })

	// boolean/bitwise (operands are treated as booleans when 0/1, ints otherwise)
	case "and":
		return twoInt(func(a, b int64) int64 { return a & b })
	case "or":
		return twoInt(func(a, b int64) int64 { return a | b })
	case "xor":
		return twoInt(func(a, b int64) int64 { return a ^ b })
	case "not":
		return one(func(a float64) float64 {
			if a == 0 || a == 1 {
				return boolToNum(a == 0)
			}
			return float64(^int64(a))
		})
	case "bitshift":
		return twoInt(func(a, shift int64) int64 {
			if shift >= 0 {
				return a << uint(shift)
			}
			return a >> uint(-shift)
		})
	case "true":
		return push(stack, 1)
	case "false":
		return push(stack, 0)

	// stack manipulation
	case "pop":
		stack, _ = pop(stack)
		return stack
	case "exch":
		var a, b float64
		stack, b = pop(stack)
		stack, a = pop(stack)
		return push(push(stack, b), a)
	case "dup":
		if len(stack) == 0 {
			return stack
		}
		return push(stack, stack[len(stack)-1])
	case "copy":
		var nf float64
		stack, nf = pop(stack)
		cnt := int(nf)
		if cnt <= 0 || cnt > len(stack) {
			return stack
		}
		return append(stack, stack[len(stack)-cnt:]...)
	case "index":
		var nf float64
		stack, nf = pop(stack)
		idx := len(stack) - 1 - int(nf)
		if idx < 0 || idx >= len(stack) {
			return push(stack, 0)
		}
		return push(stack, stack[idx])
	case "roll":
		var nf, jf float64
		stack, jf = pop(stack)
		stack, nf = pop(stack)
		n := int(nf)
		if n <= 0 || n > len(stack) {
			return stack
		}
		j := int(jf) % n
		if j < 0 {
			j += n
		}
		top := stack[len(stack)-n:]
		rolled := append(append([]float64(nil), top[n-j:]...), top[:n-j]...)
		copy(top, rolled)
		return stack
	}

	return stack
}
