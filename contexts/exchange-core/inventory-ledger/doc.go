// Package inventoryledger owns surplus materials and their available
// quantity. Reservation, release, and transfer marking are atomic per
// material so concurrent approvals can never over-allocate.
//
// Layering:
// - domain: material entity, allocation ledger, invariants, errors
// - application: material master data and allocation operations
// - ports: persistence, gate, audit sink, attachment boundaries
// - adapters: concrete memory, postgres, and HTTP implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Quantities are exact decimals; binary floating point never touches
//   allocation math.
// - Every mutation persists its audit entry in the same unit of work.
package inventoryledger
