// Package engine invokes the external transport engine.
//
// The engine is an opaque executable. It is started in a scenario's working
// directory, reads the configuration files found there, and writes its
// result artifacts back into the same directory. The harness blocks on
// Runner.Run until the process exits.
//
// A non-zero exit status is not an error at this layer: Run returns an
// Execution carrying the status and captured output, and callers decide how
// to treat it. Run returns an error only when the process could not be
// started or was killed because its context ended.
package engine
