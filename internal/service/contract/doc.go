// Package contract manages issued policy sales.
//
// Contracts are only created and repriced through the rating resolver. The
// net price is copied from the matched rate chart row at that moment and is
// never recomputed afterwards.
package contract
