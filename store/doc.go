// Package store provides the persistence implementations behind the core
// store interfaces.
//
// The in-memory stores are process-local, safe for concurrent use and return
// deep copies, which makes them the default for tests and examples. The GORM
// store persists the same records to PostgreSQL in production or to an
// embedded SQLite file, with the nested turn structures kept as JSON columns.
package store
