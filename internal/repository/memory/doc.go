// Package memory is an in-process implementation of every store and finder.
// It backs the "memory" storage driver and the service and API tests.
//
// All tables share one lock so referential checks see a consistent view.
package memory
