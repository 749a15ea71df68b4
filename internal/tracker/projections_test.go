package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestPerInstrument(t *testing.T) {
	t.Run("picks max event time per symbol, ordered by symbol", func(t *testing.T) {
		s := NewState()
		s = Apply(s, IngestSample{Sample: sample("ETHUSDT", 10, 3000)})
		s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 30, 50000)})
		s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 20, 49000)})
		s = Apply(s, IngestSample{Sample: sample("ETHUSDT", 40, 3100)})

		latest := LatestPerInstrument(s)
		require.Len(t, latest, 2)
		assert.Equal(t, "BTCUSDT", latest[0].Symbol)
		assert.EqualValues(t, 30, latest[0].EventTime)
		assert.Equal(t, "ETHUSDT", latest[1].Symbol)
		assert.EqualValues(t, 40, latest[1].EventTime)
	})

	t.Run("equal event times prefer last inserted", func(t *testing.T) {
		s := NewState()
		s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 10, 100)})
		s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 10, 200)})
		latest := LatestPerInstrument(s)
		require.Len(t, latest, 1)
		assert.InDelta(t, 200, latest[0].Close, 1e-9)
	})

	t.Run("empty state", func(t *testing.T) {
		assert.Empty(t, LatestPerInstrument(NewState()))
	})
}

func TestAllSamplesFlat(t *testing.T) {
	s := NewState()
	s = Apply(s, IngestSample{Sample: sample("ETHUSDT", 30, 3000)})
	s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 10, 50000)})
	s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 20, 50100)})
	s = Apply(s, IngestSample{Sample: sample("ETHUSDT", 15, 2990)})

	flat := AllSamplesFlat(s)
	require.Len(t, flat, 4)
	times := make([]int64, len(flat))
	for i, smp := range flat {
		times[i] = smp.EventTime
	}
	assert.Equal(t, []int64{10, 15, 20, 30}, times)
}

func TestAllSamplesFlatStableOnTies(t *testing.T) {
	s := NewState()
	s = Apply(s, IngestSample{Sample: sample("ETHUSDT", 10, 1)})
	s = Apply(s, IngestSample{Sample: sample("BTCUSDT", 10, 2)})

	flat := AllSamplesFlat(s)
	require.Len(t, flat, 2)
	// Symbol order breaks the tie.
	assert.Equal(t, "BTCUSDT", flat[0].Symbol)
	assert.Equal(t, "ETHUSDT", flat[1].Symbol)
}

func TestConnectionProjection(t *testing.T) {
	s := NewState()
	snap := Connection(s)
	assert.False(t, snap.Connected)
	assert.Equal(t, StatusDisconnected, snap.Status)

	s = Apply(s, SetDesiredConnection{Desired: true})
	s = Apply(s, SetConnection{Connected: true, Status: "connected"})
	s = Apply(s, SetSessionStart{StartedAt: 777})
	s = Apply(s, IncrementReceived{})
	s = Apply(s, IncrementSent{})

	snap = Connection(s)
	assert.True(t, snap.DesiredConnection)
	assert.True(t, snap.Connected)
	assert.Equal(t, "connected", snap.Status)
	assert.EqualValues(t, 777, snap.SessionStart)
	assert.EqualValues(t, 1, snap.MessagesReceived)
	assert.EqualValues(t, 1, snap.MessagesSent)
}

func TestVisibilityProjections(t *testing.T) {
	s := NewState()
	s = Apply(s, AddInstrument{Instrument: instrument("BTCUSDT")})
	s = Apply(s, AddInstrument{Instrument: instrument("ETHUSDT")})
	s = Apply(s, SetAllVisible{Symbols: s.SelectedSymbols()})

	assert.True(t, IsVisible(s, "BTCUSDT"))
	require.Len(t, VisibleSelection(s), 2)

	s = Apply(s, SetOnlyVisible{Symbol: "ETHUSDT"})
	vis := VisibleSelection(s)
	require.Len(t, vis, 1)
	assert.Equal(t, "ETHUSDT", vis[0].Instrument.Symbol)

	// IsVisible keeps its fresh-instrument default for symbols never
	// written to the map; VisibleSelection does not.
	assert.True(t, IsVisible(s, "XRPUSDT"))
}
