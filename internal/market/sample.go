package market

// PriceSample is one observed market update for an instrument.
//
// EventTime is the exchange event timestamp in milliseconds. The feed is
// non-decreasing per instrument but arrival order is not guaranteed, so
// consumers must not assume samples arrive chronologically.
//
// PrevClose, Change and ChangePercent are filled at ingestion time
// relative to the most recent prior sample by event time; they stay nil
// when no earlier sample exists.
type PriceSample struct {
	Symbol    string  `json:"symbol"`
	EventTime int64   `json:"event_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Closed    bool    `json:"closed"`

	PrevClose     *float64 `json:"prev_close,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
}
