// Package session stores conversation transcripts keyed by session id so
// HTTP clients can continue a conversation without resending history.
//
// Only an in-memory backend ships here. Add durable backends (Redis,
// Postgres, etc.) behind the same Store interface; only the wiring layer
// needs to decide which implementation to instantiate.
package session
