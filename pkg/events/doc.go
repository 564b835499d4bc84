// Package events implements an in-process named-event registry. Callers
// register callbacks against string event names, emit events with a
// payload, and may temporarily silence a name so emissions for it are
// dropped without disturbing its subscribers.
//
// All delivery is synchronous on the emitter's goroutine. The registry is
// safe for concurrent use; emission iterates over a snapshot of the
// callback list, so callbacks may freely mutate the registry without
// affecting the in-flight dispatch.
package events
