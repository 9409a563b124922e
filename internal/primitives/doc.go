// Package primitives defines the portable data model shared by every engine
// implementation: machine, state and transition configs, the action and guard
// sum types, events, transition results and the context map.
//
// Everything here round-trips through JSON and YAML in its expression form, so
// a configuration can move between independently written interpreters
// unchanged. Closure variants exist for in-process use and refuse to encode.
//
// Core invariants:
//   - Configs are built once and never mutated by the engine.
//   - Context values are JSON-compatible; numbers are held as float64.
//   - Transition targets and the initial state are keys of States.
package primitives
