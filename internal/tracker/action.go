package tracker

import "tickerboard/internal/market"

// Action is the closed set of state transitions. The interface is
// sealed so Apply's type switch covers every kind that can exist.
type Action interface {
	isAction()
}

// AddInstrument appends the instrument to the selection. Adding a
// symbol that is already selected is a no-op and never reassigns the
// existing color.
type AddInstrument struct {
	Instrument market.Instrument
}

// RemoveInstrument drops the symbol from the selection and recomputes
// the desired-connection flag. It does not touch the symbol's history;
// callers pair it with ClearHistory when they want the data gone too.
type RemoveInstrument struct {
	Symbol string
}

// ClearAllInstruments empties the selection, all histories, the
// visibility map and every connect-intent field.
type ClearAllInstruments struct{}

// IngestSample records one inbound price sample, computing its change
// fields against the latest earlier sample of the same symbol.
type IngestSample struct {
	Sample market.PriceSample
}

// ClearHistory deletes the symbol's entire history entry.
type ClearHistory struct {
	Symbol string
}

// SetConnection records the transport's connected flag and a human
// status line. A successful connect clears the advisory error.
type SetConnection struct {
	Connected bool
	Status    string
}

// SetError sets the advisory error message; an empty message clears it.
type SetError struct {
	Message string
}

// SetDesiredConnection overrides the connect-intent flag. Turning it
// off also clears loading and the session start marker.
type SetDesiredConnection struct {
	Desired bool
}

// SetLoading sets the loading flag and nothing else.
type SetLoading struct {
	Loading bool
}

// SetSessionStart sets the session start marker in unix milliseconds;
// zero clears it.
type SetSessionStart struct {
	StartedAt int64
}

// IncrementReceived bumps the inbound message counter by one.
type IncrementReceived struct{}

// IncrementSent bumps the outbound message counter by one.
type IncrementSent struct{}

// ToggleVisibility flips the symbol's visibility entry. A symbol with
// no entry toggles to true.
type ToggleVisibility struct {
	Symbol string
}

// SetAllVisible replaces the visibility map: every listed symbol gets
// an explicit true entry, everything else is dropped.
type SetAllVisible struct {
	Symbols []string
}

// SetOnlyVisible replaces the visibility map with a single true entry.
type SetOnlyVisible struct {
	Symbol string
}

func (AddInstrument) isAction()        {}
func (RemoveInstrument) isAction()     {}
func (ClearAllInstruments) isAction()  {}
func (IngestSample) isAction()         {}
func (ClearHistory) isAction()         {}
func (SetConnection) isAction()        {}
func (SetError) isAction()             {}
func (SetDesiredConnection) isAction() {}
func (SetLoading) isAction()           {}
func (SetSessionStart) isAction()      {}
func (IncrementReceived) isAction()    {}
func (IncrementSent) isAction()        {}
func (ToggleVisibility) isAction()     {}
func (SetAllVisible) isAction()        {}
func (SetOnlyVisible) isAction()       {}
