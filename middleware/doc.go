// Package middleware exposes HTTP middleware adapters that bind the
// console session to a request and gate handlers on it.
//
// # Guards
//
//   - [Session] binds the per-request session store without enforcing it.
//   - [RequireSession] rejects requests without a valid session token.
//   - [RequireModule] rejects sessions whose permissions do not enable a
//     navigation module.
//
// Browsers (requests accepting text/html) are redirected to the login or
// password change route; API clients get 401 or 403.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Console calls. Session
// resolution is delegated to Console.RequestStore and every decision to
// the Console's session and navigation state.
//
// # What this package must NOT do
//
//   - Decode tokens itself (delegates to the session store).
//   - Talk to the backend API.
package middleware
