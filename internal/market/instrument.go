package market

// Instrument identifies a tradeable pair as reported by the exchange
// catalog. Immutable once fetched.
type Instrument struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"base_asset"`
	QuoteAsset string `json:"quote_asset"`
	Status     string `json:"status"`
}
