// Package audit implements async delivery of session lifecycle events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, logger, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured record with id, timestamp, type, user, business and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the console and its flows do.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import the root console package or any sibling internal package.
//   - Record tokens or passwords in events.
package audit
