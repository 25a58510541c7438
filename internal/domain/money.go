package domain

import "github.com/shopspring/decimal"

// Money fields go over the wire as JSON numbers so clients can do arithmetic
// on them directly. Decoding still accepts quoted values.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
