// Package harness runs YAML-described state transition scenarios against
// the reducers and asserts on the resulting trace and final state.
//
// A scenario dispatches a sequence of transitions into a fresh store and
// records one trace event per dispatch: the sequence number, the transition
// name and a summary of the state after it. Scenarios run against the pure
// reducer layer only; nothing touches the network or the filesystem, so a
// scenario's trace is fully deterministic and can be pinned with a golden
// file.
//
// Scenario files live in testdata/scenarios, golden traces in
// testdata/golden. Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
