package tracker

import (
	"tickerboard/internal/market"
	"tickerboard/internal/palette"
)

// Apply is the pure transition function: it derives a new snapshot from
// the previous one and never fails. It has no side effects and must not
// be called concurrently for the same lineage; the Dispatcher is the
// serialization point.
func Apply(s *State, a Action) *State {
	switch act := a.(type) {
	case AddInstrument:
		return applyAdd(s, act)
	case RemoveInstrument:
		return applyRemove(s, act)
	case ClearAllInstruments:
		next := s.shallow()
		next.Selection = nil
		next.Histories = map[string][]market.PriceSample{}
		next.Visibility = map[string]bool{}
		next.DesiredConnection = false
		next.Loading = false
		next.SessionStart = 0
		return next
	case IngestSample:
		return applyIngest(s, act)
	case ClearHistory:
		if _, ok := s.Histories[act.Symbol]; !ok {
			return s
		}
		next := s.shallow()
		next.Histories = copyHistories(s.Histories)
		delete(next.Histories, act.Symbol)
		return next
	case SetConnection:
		next := s.shallow()
		next.Connected = act.Connected
		next.Status = act.Status
		if act.Connected {
			next.LastError = ""
		}
		return next
	case SetError:
		next := s.shallow()
		next.LastError = act.Message
		return next
	case SetDesiredConnection:
		next := s.shallow()
		next.DesiredConnection = act.Desired
		if !act.Desired {
			next.Loading = false
			next.SessionStart = 0
		}
		return next
	case SetLoading:
		next := s.shallow()
		next.Loading = act.Loading
		return next
	case SetSessionStart:
		next := s.shallow()
		next.SessionStart = act.StartedAt
		return next
	case IncrementReceived:
		next := s.shallow()
		next.MessagesReceived++
		return next
	case IncrementSent:
		next := s.shallow()
		next.MessagesSent++
		return next
	case ToggleVisibility:
		next := s.shallow()
		next.Visibility = copyVisibility(s.Visibility)
		next.Visibility[act.Symbol] = !s.Visibility[act.Symbol]
		return next
	case SetAllVisible:
		next := s.shallow()
		next.Visibility = make(map[string]bool, len(act.Symbols))
		for _, sym := range act.Symbols {
			next.Visibility[sym] = true
		}
		return next
	case SetOnlyVisible:
		next := s.shallow()
		next.Visibility = map[string]bool{act.Symbol: true}
		return next
	default:
		return s
	}
}

func applyAdd(s *State, act AddInstrument) *State {
	sym := act.Instrument.Symbol
	if sym == "" || s.Selected(sym) {
		return s
	}
	color, ok := s.Colors[sym]
	if !ok {
		color = palette.ColorFor(sym)
	}
	next := s.shallow()
	selection := make([]SelectionEntry, 0, len(s.Selection)+1)
	selection = append(selection, s.Selection...)
	next.Selection = append(selection, SelectionEntry{Instrument: act.Instrument, Color: color})
	next.Colors = copyColors(s.Colors)
	next.Colors[sym] = color
	return next
}

func applyRemove(s *State, act RemoveInstrument) *State {
	selection := make([]SelectionEntry, 0, len(s.Selection))
	for _, e := range s.Selection {
		if e.Instrument.Symbol != act.Symbol {
			selection = append(selection, e)
		}
	}
	next := s.shallow()
	next.Selection = selection
	next.DesiredConnection = len(selection) > 0
	if len(selection) == 0 {
		next.Loading = false
		next.SessionStart = 0
	}
	return next
}

func applyIngest(s *State, act IngestSample) *State {
	sample := act.Sample
	hist := s.Histories[sample.Symbol]

	// Previous sample: greatest event time strictly before this one,
	// scanning the whole history since arrival order is unordered.
	// Ties among candidates resolve to the last-inserted one.
	var prev *market.PriceSample
	for i := range hist {
		if hist[i].EventTime >= sample.EventTime {
			continue
		}
		if prev == nil || hist[i].EventTime >= prev.EventTime {
			prev = &hist[i]
		}
	}
	if prev != nil {
		prevClose := prev.Close
		change := sample.Close - prevClose
		sample.PrevClose = &prevClose
		sample.Change = &change
		if prevClose != 0 {
			pct := change / prevClose * 100
			sample.ChangePercent = &pct
		}
	}

	kept := hist
	if len(kept) >= MaxHistory {
		kept = kept[len(kept)-(MaxHistory-1):]
	}
	updated := make([]market.PriceSample, 0, len(kept)+1)
	updated = append(updated, kept...)
	updated = append(updated, sample)

	next := s.shallow()
	next.Histories = copyHistories(s.Histories)
	next.Histories[sample.Symbol] = updated
	next.Loading = false
	return next
}
