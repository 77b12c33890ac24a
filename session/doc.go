// Package session persists the artifacts of a console session: the backend
// token, the user, the business membership set, the active business and
// its theme, the cached role/permission payload and the business-scoped
// token.
//
// # Backends
//
// [Store] talks to exactly one [Backend]. The medium is picked by where the
// console runs:
//
//   - [MemoryBackend] for tests and embedding.
//   - [RedisBackend] for server-side sessions keyed by an opaque session id.
//   - [CookieBackend] for a server-rendered console, one signed cookie per key.
//   - [FileBackend] for the command line client, an age-encrypted document.
//
// All backends share the key names in [AllKeys], so [Store.ClearSession]
// is one multi-key delete regardless of medium.
//
// # Failure model
//
// Reads are total. Backend errors and undecodable values are logged and
// read as absent; token decoding errors read as expired. Writes return
// their error.
//
// # What this package must NOT do
//
//   - Import the root console package or internal/api.
//   - Decide which navigation modules are enabled.
//   - Trust a token's claims for anything beyond its expiry.
package session
