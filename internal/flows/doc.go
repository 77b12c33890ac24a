// Package flows contains the orchestrators behind every Console operation.
//
// Each flow function (RunLogin, RunSwitchBusiness, RunBusinessToken, etc.)
// accepts a typed dependency struct and has no side effects beyond those
// dependencies. The Console builds the structs once and stays thin.
//
// # Late completions
//
// A flow that awaits the backend remembers the session token it started
// with and applies the result only if that token is still stored.
// Otherwise the result is dropped and Errors.SessionChanged is returned.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root console package (to avoid import cycles).
//   - Talk to the backend except through Env.Backend.
package flows
