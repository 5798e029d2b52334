// Package engine runs queries end to end: compile, execute, materialize.
//
// An Engine holds a compiler (and the schema resolver behind it) and an
// optional transport. Compilation always happens first and is the only step
// that can reject a query for translation reasons; the transport is never
// contacted when compilation fails.
//
// Each execution is stamped with a trace id from a TraceGenerator so log
// lines and CLI responses for one query can be correlated.
//
// An Engine is safe for concurrent use as long as its transport is.
package engine
