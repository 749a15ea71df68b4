package market

// SourceStats exposes transport-level counters from a stream adapter.
type SourceStats struct {
	Reconnects      int    `json:"reconnects"`
	SubscribeErrors int    `json:"subscribe_errors"`
	LastError       string `json:"last_error,omitempty"`
}
