// Package authorizationgate decides whether an identity may drive an
// action against a resource. The decision function is pure: no storage,
// no caching, re-evaluated on every call.
//
// Layering:
// - domain: identity/action/resource model and the ordered rule set
// - application: decision logging wrapper used by transport and services
//
// Boundary notes:
// - Consumers depend on this module through their own ports; wiring
//   happens in the composition root, never inside contexts.
// - Deny is the default. A rule that matches but whose condition fails
//   is a deny, not a fall-through.
package authorizationgate
