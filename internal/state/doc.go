// Package state holds the normalized application state and the closed set
// of transitions that may change it.
//
// ARCHITECTURE:
//
// Synchronous single-writer dispatch:
// The Store applies every transition atomically under one mutex - no
// transition processing interleaves with another, and every subscriber
// observes the same total order of changes.
//
// Dispatch flow:
//  1. A caller dispatches a Transition (a value from the sealed sum type)
//  2. Each slice reducer computes its next value (pure, total, no I/O)
//  3. The store swaps the whole AppState for the new immutable value
//  4. The change (seq, transition, new state) is fanned out to subscribers
//
// Reducers never fail and never block. An unknown transition is a
// pass-through: the slice value is returned unchanged, reference and all.
// Slices are immutable by convention - reducers copy-on-write, and nothing
// outside this package may mutate a slice it read from the store.
package state
