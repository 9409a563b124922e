package expr

import (
	"strconv"
	"strings"
)

type node interface {
	String() string
}

type rootKind int

const (
	rootContext rootKind = iota
	rootPayload
	rootEventName
)

type literal struct {
	val any
}

type pathRef struct {
	root   rootKind
	fields []string
}

type unary struct {
	op tokenKind
	x  node
}

type binary struct {
	op   tokenKind
	x, y node
}

type conditional struct {
	cond, then, els node
}

func (l literal) String() string {
	switch v := l.val.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return "?"
}

func (p pathRef) String() string {
	switch p.root {
	case rootPayload:
		return "event.payload." + strings.Join(p.fields, ".")
	case rootEventName:
		return "event.name"
	default:
		return "context." + strings.Join(p.fields, ".")
	}
}

func (u unary) String() string { return u.op.String() + u.x.String() }

func (b binary) String() string {
	return "(" + b.x.String() + " " + b.op.String() + " " + b.y.String() + ")"
}

func (c conditional) String() string {
	return "(" + c.cond.String() + " ? " + c.then.String() + " : " + c.els.String() + ")"
}

// contextFields collects the top-level context fields read by n.
func contextFields(n node, seen map[string]bool) {
	switch t := n.(type) {
	case pathRef:
		if t.root == rootContext && len(t.fields) > 0 {
			seen[t.fields[0]] = true
		}
	case unary:
		contextFields(t.x, seen)
	case binary:
		contextFields(t.x, seen)
		contextFields(t.y, seen)
	case conditional:
		contextFields(t.cond, seen)
		contextFields(t.then, seen)
		contextFields(t.els, seen)
	}
}
