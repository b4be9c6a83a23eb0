package domain

import "github.com/shopspring/decimal"

// Prices go over the wire as JSON numbers (120.5), not strings. Requests may
// send either form.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
