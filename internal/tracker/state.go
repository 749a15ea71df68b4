// Package tracker holds the authoritative session state of the price
// board: the selected instruments, their rolling price history, chart
// visibility, and the stream connection status. All mutation goes
// through Apply; all concurrent access goes through the Dispatcher.
package tracker

import "tickerboard/internal/market"

// MaxHistory bounds every instrument's rolling sample history. Oldest
// entries are evicted first, by insertion order.
const MaxHistory = 1000

// StatusDisconnected is the connection status of a fresh session.
const StatusDisconnected = "disconnected"

// SelectionEntry pairs a selected instrument with its display color.
type SelectionEntry struct {
	Instrument market.Instrument `json:"instrument"`
	Color      string            `json:"color"`
}

// State is one immutable snapshot of the session. Apply never mutates a
// snapshot in place; holders of an old *State can keep reading it after
// any number of later transitions.
type State struct {
	// Selection preserves add order and is unique by symbol.
	Selection []SelectionEntry
	// Colors survives removal so a re-added symbol keeps its color.
	Colors map[string]string
	// Histories maps symbol to its samples in arrival order, which is
	// not necessarily event-time order.
	Histories map[string][]market.PriceSample
	// Visibility entries exist only after an explicit visibility
	// action; absent symbols are treated as visible.
	Visibility map[string]bool

	DesiredConnection bool
	Connected         bool
	Status            string
	// LastError is empty when there is no advisory error.
	LastError string
	Loading   bool
	// SessionStart is unix milliseconds; zero means unset.
	SessionStart int64

	MessagesReceived uint64
	MessagesSent     uint64
}

// NewState returns the empty initial snapshot.
func NewState() *State {
	return &State{
		Colors:     map[string]string{},
		Histories:  map[string][]market.PriceSample{},
		Visibility: map[string]bool{},
		Status:     StatusDisconnected,
	}
}

// Selected reports whether symbol is currently in the selection.
func (s *State) Selected(symbol string) bool {
	for _, e := range s.Selection {
		if e.Instrument.Symbol == symbol {
			return true
		}
	}
	return false
}

// SelectedSymbols returns the selection's symbols in add order.
func (s *State) SelectedSymbols() []string {
	out := make([]string, 0, len(s.Selection))
	for _, e := range s.Selection {
		out = append(out, e.Instrument.Symbol)
	}
	return out
}

// shallow copies the snapshot struct; maps and slices are still shared
// with the parent and must be replaced, never written, by the caller.
func (s *State) shallow() *State {
	next := *s
	return &next
}

func copyColors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyVisibility(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyHistories(m map[string][]market.PriceSample) map[string][]market.PriceSample {
	out := make(map[string][]market.PriceSample, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
