// Package components holds the machine configs of the UI primitives. Every
// factory returns a fresh, portable config: guards and actions are expression
// strings so the same definition can drive any conforming engine.
//
// Vectors for each primitive live in testdata/<name>.unified.json.
package components
