// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (publication.go, events.go, errors.go) hold the shared
// record, the wire envelopes and the consumer-side contracts. No implementation
// code beyond value helpers.
package domain
