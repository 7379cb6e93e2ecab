// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer RunLogger with contextual helpers
// (session, user, run identifiers) and domain specific helpers for pipeline
// phase transitions, persistence inconsistencies and model calls.
package logging
