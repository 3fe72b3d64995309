// Package harness runs tally regression scenarios end to end.
//
// A scenario builds a tally specification, serializes it into the working
// directory, runs the external engine there, and compares the result
// artifact the engine leaves behind against a stored reference within a
// numerical tolerance.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: mg_tallies
//	description: Multi-group tallies over a 17x17 pin mesh
//	builder: mg_tallies        # or: spec: tallies.cue
//	work_dir: .                # relative to this file; defaults to its directory
//	config_file: tallies.xml
//	result_pattern: statepoint.10.*
//	reference: results_true.yaml
//	inputs_reference: inputs_true.xml
//	tolerance: {abs: 1.0e-12, rel: 1.0e-6}
//	engine:
//	  args: ["--threads", "1"]
//	  env: {OMP_NUM_THREADS: "1"}
//	cleanup: ["summary.*", "tallies.out"]
//
// # States
//
// Every run moves through
//
//	BUILDING -> CONFIGURED -> RUNNING -> COMPLETED -> PASSED | FAILED -> CLEANED
//
// and always ends in CLEANED: generated artifacts are removed on every exit
// path, including errors and panics in the builder. Cleanup failures are
// logged and never change the verdict.
//
// Specification errors (duplicate ids, dangling mesh references, invalid
// filters) abort the run before the engine starts and are returned as the
// error of Run. Engine failures, missing artifacts and numerical mismatches
// are verdicts: Run returns a FAILED Result with Result.Err set and a nil
// error, so sibling scenarios keep running.
package harness
