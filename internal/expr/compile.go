package expr

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Env is the input to an evaluation. Context and Payload are read, never written.
type Env struct {
	Context   map[string]any
	EventName string
	Payload   map[string]any
}

type evalFunc func(env *Env) (any, error)

// Program is a compiled expression.
type Program struct {
	source string
	root   node
	eval   evalFunc
}

// Compile parses and compiles an expression.
func Compile(src string) (*Program, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Source: src, Msg: "empty expression"}
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return &Program{source: src, root: root, eval: compileNode(root, src)}, nil
}

// Source returns the original text.
func (p *Program) Source() string { return p.source }

// String returns the normalized, fully parenthesized form.
func (p *Program) String() string { return p.root.String() }

// Fields returns the top-level context fields the program reads, sorted.
func (p *Program) Fields() []string {
	seen := make(map[string]bool)
	contextFields(p.root, seen)
	return slices.Sorted(maps.Keys(seen))
}

// Eval evaluates the program.
func (p *Program) Eval(env Env) (any, error) {
	return p.eval(&env)
}

// Bool evaluates the program and applies truthiness.
func (p *Program) Bool(env Env) (bool, error) {
	v, err := p.eval(&env)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Mutation is a compiled `context.<field> = <expr>` assignment.
type Mutation struct {
	Field string
	rhs   *Program
}

// CompileMutation parses and compiles a single assignment.
func CompileMutation(src string) (*Mutation, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Source: src, Msg: "empty mutation"}
	}
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	field, rhs, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &Mutation{
		Field: field,
		rhs:   &Program{source: src, root: rhs, eval: compileNode(rhs, src)},
	}, nil
}

// Source returns the original text.
func (m *Mutation) Source() string { return m.rhs.source }

// Value computes the value to assign without touching the context.
func (m *Mutation) Value(env Env) (any, error) {
	return m.rhs.Eval(env)
}

// Apply computes the value from env and assigns it to ctx[Field].
func (m *Mutation) Apply(ctx map[string]any, env Env) error {
	v, err := m.rhs.Eval(env)
	if err != nil {
		return err
	}
	ctx[m.Field] = v
	return nil
}

func compileNode(n node, src string) evalFunc {
	switch t := n.(type) {
	case literal:
		v := t.val
		return func(*Env) (any, error) { return v, nil }
	case pathRef:
		return compilePath(t)
	case unary:
		return compileUnary(t, src)
	case binary:
		return compileBinary(t, src)
	case conditional:
		cond, then, els := compileNode(t.cond, src), compileNode(t.then, src), compileNode(t.els, src)
		return func(env *Env) (any, error) {
			c, err := cond(env)
			if err != nil {
				return nil, err
			}
			if Truthy(c) {
				return then(env)
			}
			return els(env)
		}
	}
	panic(fmt.Sprintf("expr: unknown node %T", n))
}

func compilePath(p pathRef) evalFunc {
	fields := p.fields
	switch p.root {
	case rootEventName:
		return func(env *Env) (any, error) { return env.EventName, nil }
	case rootPayload:
		return func(env *Env) (any, error) {
			if env.Payload == nil {
				return nil, nil
			}
			return lookup(env.Payload, fields), nil
		}
	default:
		return func(env *Env) (any, error) {
			if env.Context == nil {
				return nil, nil
			}
			return lookup(env.Context, fields), nil
		}
	}
}

func compileUnary(u unary, src string) evalFunc {
	x := compileNode(u.x, src)
	if u.op == tokNot {
		return func(env *Env) (any, error) {
			v, err := x(env)
			if err != nil {
				return nil, err
			}
			return !Truthy(v), nil
		}
	}
	return func(env *Env) (any, error) {
		v, err := x(env)
		if err != nil {
			return nil, err
		}
		f, ok := number(v)
		if !ok {
			return nil, &EvalError{Source: src, Msg: "cannot negate " + kindOf(v)}
		}
		return -f, nil
	}
}

func compileBinary(b binary, src string) evalFunc {
	x, y := compileNode(b.x, src), compileNode(b.y, src)
	switch b.op {
	case tokAnd:
		return func(env *Env) (any, error) {
			l, err := x(env)
			if err != nil || !Truthy(l) {
				return l, err
			}
			return y(env)
		}
	case tokOr:
		return func(env *Env) (any, error) {
			l, err := x(env)
			if err != nil || Truthy(l) {
				return l, err
			}
			return y(env)
		}
	}
	op := binaryOp(b.op, src)
	return func(env *Env) (any, error) {
		l, err := x(env)
		if err != nil {
			return nil, err
		}
		r, err := y(env)
		if err != nil {
			return nil, err
		}
		return op(l, r)
	}
}

func binaryOp(op tokenKind, src string) func(l, r any) (any, error) {
	typeErr := func(l, r any) error {
		return &EvalError{Source: src, Msg: fmt.Sprintf("operator %s not defined for %s and %s", op, kindOf(l), kindOf(r))}
	}
	switch op {
	case tokEq, tokStrictEq:
		return func(l, r any) (any, error) { return Equal(l, r), nil }
	case tokNeq, tokStrictNeq:
		return func(l, r any) (any, error) { return !Equal(l, r), nil }
	case tokLt, tokLte, tokGt, tokGte:
		return func(l, r any) (any, error) {
			c, ok := compare(l, r)
			if !ok {
				return nil, typeErr(l, r)
			}
			switch op {
			case tokLt:
				return c < 0, nil
			case tokLte:
				return c <= 0, nil
			case tokGt:
				return c > 0, nil
			}
			return c >= 0, nil
		}
	case tokPlus:
		return func(l, r any) (any, error) {
			if a, ok := number(l); ok {
				if b, ok := number(r); ok {
					return a + b, nil
				}
			}
			_, ls := l.(string)
			_, rs := r.(string)
			if ls || rs {
				return format(l) + format(r), nil
			}
			return nil, typeErr(l, r)
		}
	}
	return func(l, r any) (any, error) {
		a, okA := number(l)
		b, okB := number(r)
		if !okA || !okB {
			return nil, typeErr(l, r)
		}
		switch op {
		case tokMinus:
			return a - b, nil
		case tokStar:
			return a * b, nil
		case tokSlash:
			if b == 0 {
				return nil, &EvalError{Source: src, Msg: "division by zero"}
			}
			return a / b, nil
		}
		if b == 0 {
			return nil, &EvalError{Source: src, Msg: "division by zero"}
		}
		return math.Mod(a, b), nil
	}
}

// compare orders two numbers or two strings.
func compare(l, r any) (int, bool) {
	if a, ok := number(l); ok {
		b, ok := number(r)
		if !ok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}
	a, okA := l.(string)
	b, okB := r.(string)
	if !okA || !okB {
		return 0, false
	}
	return strings.Compare(a, b), true
}
