// Package mock provides test doubles for the ai interfaces.
//
// The mock embedder produces deterministic vectors derived from the input
// text, so tests get stable similarity relationships without an external
// embedding service.
package mock
