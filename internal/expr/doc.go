// Package expr compiles the restricted expression language used by portable
// guards and mutations.
//
// Guards are boolean expressions over `context.<field>`, `event.payload.<field>`
// (or the `payload.<field>` shorthand) and literals. Mutations are a single
// assignment `context.<field> = <expr>`. Source text is parsed once into an
// AST and compiled into a tree of closures; evaluation never re-parses.
//
// Values follow JSON: nil, bool, float64, string, []any and map[string]any.
// Missing fields read as nil. Equality is strict: `==` and `===` never coerce
// across types, and numbers compare by value.
package expr
