// Package identitycontext resolves opaque credentials into the identity
// attached to every core operation.
//
// Layering:
// - domain: subject/organization entities, failure kinds
// - application: credential verification and issuance using explicit ports
// - ports: token codec, subject directory, clock boundaries
// - adapters: concrete jwt, memory, postgres, and HTTP implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Keep this module self-contained under identity-access context.
// - Expiry, malformed tokens, and unknown subjects are distinct failure
//   kinds so callers can prompt re-authentication only on expiry.
package identitycontext
