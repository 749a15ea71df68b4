package tracker

import (
	"sort"

	"tickerboard/internal/market"
)

// ConnectionSnapshot bundles the connection-related fields of a state
// snapshot for read-only consumers.
type ConnectionSnapshot struct {
	DesiredConnection bool   `json:"desired_connection"`
	Connected         bool   `json:"connected"`
	Status            string `json:"status"`
	LastError         string `json:"last_error,omitempty"`
	Loading           bool   `json:"loading"`
	SessionStart      int64  `json:"session_start,omitempty"`
	MessagesReceived  uint64 `json:"messages_received"`
	MessagesSent      uint64 `json:"messages_sent"`
}

// Connection projects the connection fields out of a snapshot.
func Connection(s *State) ConnectionSnapshot {
	return ConnectionSnapshot{
		DesiredConnection: s.DesiredConnection,
		Connected:         s.Connected,
		Status:            s.Status,
		LastError:         s.LastError,
		Loading:           s.Loading,
		SessionStart:      s.SessionStart,
		MessagesReceived:  s.MessagesReceived,
		MessagesSent:      s.MessagesSent,
	}
}

// LatestPerInstrument returns, for every instrument with a non-empty
// history, the sample with the greatest event time. When several
// samples share the maximum event time the last-inserted one wins.
// Results are ordered by symbol so repeated reads are stable.
func LatestPerInstrument(s *State) []market.PriceSample {
	out := make([]market.PriceSample, 0, len(s.Histories))
	for _, sym := range sortedHistorySymbols(s) {
		hist := s.Histories[sym]
		if len(hist) == 0 {
			continue
		}
		latest := hist[0]
		for _, sample := range hist[1:] {
			if sample.EventTime >= latest.EventTime {
				latest = sample
			}
		}
		out = append(out, latest)
	}
	return out
}

// AllSamplesFlat concatenates every history and sorts ascending by
// event time. The sort is stable: equal timestamps keep their relative
// order, which is symbol order then insertion order.
func AllSamplesFlat(s *State) []market.PriceSample {
	total := 0
	for _, hist := range s.Histories {
		total += len(hist)
	}
	out := make([]market.PriceSample, 0, total)
	for _, sym := range sortedHistorySymbols(s) {
		out = append(out, s.Histories[sym]...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventTime < out[j].EventTime
	})
	return out
}

// IsVisible reports chart visibility for a symbol. Symbols without an
// explicit entry are visible by default.
func IsVisible(s *State, symbol string) bool {
	v, ok := s.Visibility[symbol]
	if !ok {
		return true
	}
	return v
}

// VisibleSelection returns the selection entries with an explicit
// visible flag, in add order. Unlike IsVisible it does not apply the
// fallback, so SetOnlyVisible hides everything it dropped from the
// map. Newly added symbols get their explicit entry at add time.
func VisibleSelection(s *State) []SelectionEntry {
	out := make([]SelectionEntry, 0, len(s.Selection))
	for _, e := range s.Selection {
		if s.Visibility[e.Instrument.Symbol] {
			out = append(out, e)
		}
	}
	return out
}

func sortedHistorySymbols(s *State) []string {
	syms := make([]string, 0, len(s.Histories))
	for sym := range s.Histories {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
