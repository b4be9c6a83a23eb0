// Package rating selects the coverage plan and rate chart row that apply to
// a customer and prices a contract from them.
//
// The resolver reads customers, plans and rates through narrow finder
// interfaces. It never writes. Every failure is one of the sentinel errors
// in errors.go so handlers can report which lookup failed.
package rating
