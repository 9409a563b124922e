// Package gallery serves the primitive configs, their conformance vectors and
// live machine sessions over HTTP.
//
// Sessions are addressed by a random ID. Every event sent to a session runs
// on that session's machine under its own lock, so sessions never block each
// other. When a Persister is configured each session is snapshotted after
// every event and reloaded on demand after a restart.
package gallery
