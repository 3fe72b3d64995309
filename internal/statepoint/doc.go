// Package statepoint reads and writes tally results produced by the engine.
//
// Results are held as one flat value slice per tally: bin-major with the
// first filter outermost, and one (mean, std_dev) pair per score inside each
// bin. Two encodings exist:
//
//   - the binary statepoint file written by the engine (see Read/Write)
//   - a YAML summary used for stored references (see ReadSummary/WriteSummary)
//
// Open accepts either and tells them apart by the binary magic.
package statepoint
