// Package domain contains the core domain entities and value objects for
// shipsync.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (HTTP, XML-RPC, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Shipment]: the business-record view of one tracked parcel
//   - [Snapshot]: a point-in-time normalized tracking result from the carrier
//   - [Transition]: the classified delta between stored and fresh status
//   - [CycleSummary]: the aggregate of all transitions in one cycle
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
