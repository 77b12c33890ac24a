// Package api is the HTTP client for the console backend's auth endpoints.
//
// Every reply is wrapped in an envelope {success, message, error, data}.
// Failures come back as [*ResponseError] (the backend answered but the
// answer is unusable) or wrap [ErrTransport] (the backend was not reached).
// Mapping those onto console error types is the caller's job.
package api
