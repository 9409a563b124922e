package expr

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokLParen
	tokRParen
	tokDot
	tokQuestion
	tokColon
	tokNot
	tokAssign
	tokEq
	tokNeq
	tokStrictEq
	tokStrictNeq
	tokAnd
	tokOr
	tokLt
	tokLte
	tokGt
	tokGte
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
)

var tokenNames = map[tokenKind]string{
	tokEOF:       "end of input",
	tokNumber:    "number",
	tokString:    "string",
	tokIdent:     "identifier",
	tokLParen:    "(",
	tokRParen:    ")",
	tokDot:       ".",
	tokQuestion:  "?",
	tokColon:     ":",
	tokNot:       "!",
	tokAssign:    "=",
	tokEq:        "==",
	tokNeq:       "!=",
	tokStrictEq:  "===",
	tokStrictNeq: "!==",
	tokAnd:       "&&",
	tokOr:        "||",
	tokLt:        "<",
	tokLte:       "<=",
	tokGt:        ">",
	tokGte:       ">=",
	tokPlus:      "+",
	tokMinus:     "-",
	tokStar:      "*",
	tokSlash:     "/",
	tokPercent:   "%",
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string // identifier name, raw number, or unquoted string value
	num  float64
	pos  int
}
