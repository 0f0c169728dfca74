// Package auth implements the authentication core of the promptcraft API:
// password credential handling, signed token issuance and validation for
// access, refresh, email verification, and password reset purposes, and the
// request-time gate that enforces account state before granting access.
//
// Tokens:
//   - Access and refresh tokens carry a "type" claim, verification and reset
//     tokens carry a "purpose" claim. A token minted for one operation never
//     validates for another; every decode path checks the discriminator.
//   - There is no revocation list. A leaked token stays valid until its
//     expiry passes. This is a deliberate scope decision.
//
// The user store is reached through the Users repository interface and a
// RepositoryManager, backed by Bun. Email delivery goes through the
// EmailDispatcher collaborator; the default implementation only logs the
// links it would send.
package auth
