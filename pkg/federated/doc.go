// Package federated links external (Google) identities to members.
//
// It covers the three pieces of a federated login that live outside the
// device trust core:
//
//   - IdentityProvider: the single external call that turns an
//     authorization code into a verified ExternalIdentity.
//   - StateStore: one-shot OAuth state values, kept in Redis or in memory.
//   - LinkRepository: the (provider, subject) to member mapping.
package federated
