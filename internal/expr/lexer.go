package expr

import (
	"strconv"
	"strings"
)

// operators is ordered longest first so "===" wins over "==" and "=".
var operators = []struct {
	text string
	kind tokenKind
}{
	{"===", tokStrictEq},
	{"!==", tokStrictNeq},
	{"==", tokEq},
	{"!=", tokNeq},
	{"&&", tokAnd},
	{"||", tokOr},
	{"<=", tokLte},
	{">=", tokGte},
	{"(", tokLParen},
	{")", tokRParen},
	{".", tokDot},
	{"?", tokQuestion},
	{":", tokColon},
	{"!", tokNot},
	{"=", tokAssign},
	{"<", tokLt},
	{">", tokGt},
	{"+", tokPlus},
	{"-", tokMinus},
	{"*", tokStar},
	{"/", tokSlash},
	{"%", tokPercent},
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ';':
			return nil, &SyntaxError{Source: src, Offset: i, Msg: "multiple statements are not supported"}
		case isDigit(c):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			if i < len(src) && isIdentStart(src[i]) {
				return nil, &SyntaxError{Source: src, Offset: i, Msg: "malformed number"}
			}
			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, &SyntaxError{Source: src, Offset: start, Msg: "malformed number"}
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: n, pos: start})
		case c == '\'' || c == '"':
			s, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i = next
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op.text) {
					toks = append(toks, token{kind: op.kind, text: op.text, pos: i})
					i += len(op.text)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &SyntaxError{Source: src, Offset: i, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\':
			if i+1 >= len(src) {
				return "", 0, &SyntaxError{Source: src, Offset: i, Msg: "unterminated escape"}
			}
			switch e := src[i+1]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				return "", 0, &SyntaxError{Source: src, Offset: i, Msg: "unknown escape \\" + string(e)}
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, &SyntaxError{Source: src, Offset: start, Msg: "unterminated string"}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
