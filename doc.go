// Package console is the session and authorization core of the reservation
// management console: it logs users in against the REST backend, keeps the
// session in a pluggable store, answers permission questions and decides
// which navigation modules and businesses the user may reach.
//
// A [Console] is built once through [Builder.Build] and is safe for
// concurrent use. Every operation resolves its session store per call,
// either the default store or one bound to the context with
// [WithSessionStore].
//
// # Architecture boundaries
//
// console is the public surface. It exposes [Console], [Builder], [Config]
// and value types. Flow orchestration, the HTTP client, audit dispatch and
// logging helpers live under internal/. Storage backends live in session,
// authorization in permission and the module table in navigation.
//
// # What this package must NOT do
//
//   - Apply a backend result after the session it was requested for was
//     replaced or cleared.
//   - Surface token decoding errors; an undecodable token is expired.
//   - Import any sub-package that re-imports console (no import cycles).
package console
