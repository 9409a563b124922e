// Package extensibility holds the pluggable evaluation tier between the
// configuration and the engine: compiled guard and action tables indexed by
// name, a logging decorator for action runners, and event sources that feed
// machines from channels or JSON streams.
package extensibility
