// Package accounts provides a minimal user-account service core: bcrypt
// credential hashing, JWT issuance and validation, a username/email
// authenticator, and the three-tier access gate (authenticated, active,
// superuser) that protects the HTTP surface.
//
// The package depends on persistence only through the Users repository
// contract; the bundled implementation is built on Bun over SQLite. HTTP
// handlers live in Controller and are mounted with RegisterRoutes; bearer
// tokens are enforced by the middleware/tokenware package.
package accounts
