// Package conformance checks a machine implementation against unified test
// vectors.
//
// A vector file holds one component's scenarios. Every step is an isolated
// check: a fresh interpreter is seeded with the step's before state and
// context, receives one event, and must land exactly on the after state and
// context. Steps are never chained.
//
// Vectors come from two provenances. "yaml" scenarios are hand authored;
// "itf" scenarios are converted from model-checker traces and may omit
// context fields that the state name already determines. Those fields are
// reconstructed with per-component inference rules before comparison.
package conformance
