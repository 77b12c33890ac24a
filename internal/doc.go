// Package internal holds the console's private packages.
//
// # Sub-packages
//
//   - api: JSON client for the reservation backend
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - cli: reserve-console command tree
//   - flows: flow orchestrators for every Console operation
//   - logx: slog construction and token redaction
//
// # What this package must NOT do
//
//   - Export types that appear in the public console API except through
//     aliases declared in the root package.
package internal
