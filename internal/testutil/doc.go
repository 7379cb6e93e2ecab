// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing raw events and to stand in for the
// agent runtime and the stores. These helpers are intentionally minimal and
// not intended for production usage.
package testutil
