package expr

import "fmt"

type parser struct {
	src  string
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, toks: toks}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Source: p.src, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, p.errorf(t, "expected %s, found %s", k, describe(t))
	}
	return t, nil
}

func (p *parser) expectEOF() error {
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokAssign {
			return p.errorf(t, "assignment is only allowed as a mutation")
		}
		return p.errorf(t, "unexpected %s", describe(t))
	}
	return nil
}

func describe(t token) string {
	switch t.kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	case tokString:
		return "string literal"
	}
	return fmt.Sprintf("%q", t.kind.String())
}

func (p *parser) parseExpr() (node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuestion {
		return cond, nil
	}
	p.next()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return conditional{cond: cond, then: then, els: els}, nil
}

// levels lists binary operators from lowest to highest precedence.
var levels = [][]tokenKind{
	{tokOr},
	{tokAnd},
	{tokEq, tokNeq, tokStrictEq, tokStrictNeq},
	{tokLt, tokLte, tokGt, tokGte},
	{tokPlus, tokMinus},
	{tokStar, tokSlash, tokPercent},
}

func (p *parser) parseBinary(level int) (node, error) {
	if level == len(levels) {
		return p.parseUnary()
	}
	x, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if !contains(levels[level], op) {
			return x, nil
		}
		p.next()
		y, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		x = binary{op: op, x: x, y: y}
	}
}

func contains(ops []tokenKind, k tokenKind) bool {
	for _, op := range ops {
		if op == k {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (node, error) {
	switch p.peek().kind {
	case tokNot, tokMinus:
		op := p.next().kind
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unary{op: op, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return literal{val: t.num}, nil
	case tokString:
		return literal{val: t.text}, nil
	case tokLParen:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return x, nil
	case tokIdent:
		switch t.text {
		case "true":
			return literal{val: true}, nil
		case "false":
			return literal{val: false}, nil
		case "null", "undefined":
			return literal{val: nil}, nil
		case "context":
			fields, err := p.parseFields()
			if err != nil {
				return nil, err
			}
			return pathRef{root: rootContext, fields: fields}, nil
		case "payload":
			fields, err := p.parseFields()
			if err != nil {
				return nil, err
			}
			return pathRef{root: rootPayload, fields: fields}, nil
		case "event":
			return p.parseEvent()
		}
		return nil, p.errorf(t, "unknown identifier %q", t.text)
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of input")
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

// parseFields reads one or more ".ident" selectors.
func (p *parser) parseFields() ([]string, error) {
	var fields []string
	for {
		if _, err := p.expect(tokDot); err != nil {
			return nil, err
		}
		id, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		fields = append(fields, id.text)
		if p.peek().kind != tokDot {
			return fields, nil
		}
	}
}

func (p *parser) parseEvent() (node, error) {
	if _, err := p.expect(tokDot); err != nil {
		return nil, err
	}
	sel, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	switch sel.text {
	case "name", "type":
		return pathRef{root: rootEventName}, nil
	case "payload":
		fields, err := p.parseFields()
		if err != nil {
			return nil, err
		}
		return pathRef{root: rootPayload, fields: fields}, nil
	}
	return nil, p.errorf(sel, "unknown event selector %q", sel.text)
}

// parseAssignment reads `context.<field> = <expr>`.
func (p *parser) parseAssignment() (string, node, error) {
	t := p.next()
	if t.kind != tokIdent || t.text != "context" {
		return "", nil, p.errorf(t, "mutation must assign to context.<field>")
	}
	if _, err := p.expect(tokDot); err != nil {
		return "", nil, err
	}
	field, err := p.expect(tokIdent)
	if err != nil {
		return "", nil, err
	}
	if t := p.peek(); t.kind == tokDot {
		return "", nil, p.errorf(t, "mutation target must be a top-level context field")
	}
	if _, err := p.expect(tokAssign); err != nil {
		return "", nil, err
	}
	rhs, err := p.parseExpr()
	if err != nil {
		return "", nil, err
	}
	if err := p.expectEOF(); err != nil {
		return "", nil, err
	}
	return field.text, rhs, nil
}
