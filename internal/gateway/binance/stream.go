package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"tickerboard/internal/logger"
	"tickerboard/internal/market"
	"tickerboard/internal/tracker"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// Adapter keeps a kline websocket session alive while the tracker
// wants one. It watches the state for connection intent and selection
// changes, subscribes to one stream per selected instrument, and feeds
// decoded samples back in as actions.
type Adapter struct {
	cfg        Config
	dispatcher *tracker.Dispatcher

	// wake is pulsed by the state subscriber so the session loop
	// re-reads the snapshot.
	wake chan struct{}

	reqID int64

	statsMu sync.Mutex
	stats   market.SourceStats
}

func NewAdapter(cfg Config, dispatcher *tracker.Dispatcher) *Adapter {
	a := &Adapter{
		cfg:        cfg.withDefaults(),
		dispatcher: dispatcher,
		wake:       make(chan struct{}, 1),
	}
	dispatcher.Subscribe(func(*tracker.State) { a.pulse() })
	return a
}

func (a *Adapter) pulse() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Stats returns a copy of the transport counters.
func (a *Adapter) Stats() market.SourceStats {
	a.statsMu.Lock()
	defer a.statsMu.Unlock()
	return a.stats
}

// Run blocks until ctx is done. While the state wants a connection and
// has a selection it maintains a session, reconnecting with a fixed
// delay up to the configured attempt limit. The attempt counter resets
// once a session is established and whenever connection intent is
// withdrawn.
func (a *Adapter) Run(ctx context.Context) error {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s := a.dispatcher.Snapshot()
		if !s.DesiredConnection || len(s.Selection) == 0 {
			attempts = 0
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.wake:
			}
			continue
		}

		err := a.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			// Clean end: intent withdrawn, go back to waiting.
			attempts = 0
			continue
		}

		attempts++
		logger.Warnf("[stream] session ended: %v (attempt %d/%d)", err, attempts, a.cfg.ReconnectAttempts)
		if attempts >= a.cfg.ReconnectAttempts {
			logger.Errorf("[stream] giving up after %d attempts", attempts)
			a.dispatchSync(ctx, tracker.SetError{Message: fmt.Sprintf("reconnect failed after %d attempts", attempts)})
			a.waitForIntentReset(ctx)
			attempts = 0
			continue
		}
		if !sleepWithContext(ctx, a.cfg.ReconnectDelay) {
			return ctx.Err()
		}
	}
}

// waitForIntentReset blocks until connection intent is withdrawn, so
// an exhausted retry budget does not spin while the state still asks
// for a connection.
func (a *Adapter) waitForIntentReset(ctx context.Context) {
	for {
		if !a.dispatcher.Snapshot().DesiredConnection {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-a.wake:
		}
	}
}

func (a *Adapter) runSession(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: a.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, a.cfg.WSURL, nil)
	if err != nil {
		a.recordSubscribeError(err)
		a.dispatchSync(ctx, tracker.SetError{Message: fmt.Sprintf("dial %s: %v", a.cfg.WSURL, err)})
		return fmt.Errorf("dialing %s: %w", a.cfg.WSURL, err)
	}
	defer conn.Close()

	a.dispatchSync(ctx, tracker.SetConnection{Connected: true, Status: "connected"})
	defer a.dispatchSync(context.WithoutCancel(ctx), tracker.SetConnection{Connected: false, Status: tracker.StatusDisconnected})

	subscribed, err := a.subscribe(conn, a.streamNames())
	if err != nil {
		a.recordSubscribeError(err)
		return err
	}

	readErr := make(chan error, 1)
	frames := make(chan []byte, 256)
	go func() {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- payload:
			default:
				logger.Warnf("[stream] inbound buffer full, dropping frame")
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.wake:
			s := a.dispatcher.Snapshot()
			if !s.DesiredConnection || len(s.Selection) == 0 {
				return nil
			}
			streams := a.streamNames()
			if sameStreams(streams, subscribed) {
				continue
			}
			if subscribed, err = a.subscribe(conn, streams); err != nil {
				a.recordSubscribeError(err)
				return err
			}
		case payload := <-frames:
			a.handleFrame(ctx, payload)
		case err := <-readErr:
			a.recordReconnect(err)
			a.dispatchSync(ctx, tracker.SetError{Message: fmt.Sprintf("stream read: %v", err)})
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

// subscribe sends the full current stream list, the way the exchange
// tolerates repeated SUBSCRIBE frames for already-active streams.
func (a *Adapter) subscribe(conn *websocket.Conn, streams []string) ([]string, error) {
	if len(streams) == 0 {
		return nil, nil
	}
	a.reqID++
	frame := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int64    `json:"id"`
	}{Method: "SUBSCRIBE", Params: streams, ID: a.reqID}
	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("encoding subscribe frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, fmt.Errorf("sending subscribe frame: %w", err)
	}
	a.dispatcher.Dispatch(tracker.IncrementSent{})
	logger.Debugf("[stream] subscribed to %d streams", len(streams))
	return streams, nil
}

func (a *Adapter) streamNames() []string {
	s := a.dispatcher.Snapshot()
	out := make([]string, 0, len(s.Selection))
	for _, e := range s.Selection {
		out = append(out, strings.ToLower(e.Instrument.Symbol)+"@kline_"+a.cfg.Interval)
	}
	return out
}

func sameStreams(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *Adapter) handleFrame(ctx context.Context, payload []byte) {
	a.dispatcher.Dispatch(tracker.IncrementReceived{})
	sample, ok := decodeKline(payload)
	if !ok {
		logger.Debugf("[stream] skipping frame: %s", truncate(payload, 120))
		return
	}
	a.dispatchSync(ctx, tracker.IngestSample{Sample: sample})
}

// decodeKline extracts a price sample from a kline event frame.
// Anything else, including subscription acks and malformed payloads,
// reports false.
func decodeKline(payload []byte) (market.PriceSample, bool) {
	if !gjson.ValidBytes(payload) {
		return market.PriceSample{}, false
	}
	root := gjson.ParseBytes(payload)
	if root.Get("e").String() != "kline" {
		return market.PriceSample{}, false
	}
	symbol := strings.ToUpper(strings.TrimSpace(root.Get("s").String()))
	eventTime := root.Get("E").Int()
	k := root.Get("k")
	if symbol == "" || eventTime <= 0 || !k.Exists() {
		return market.PriceSample{}, false
	}
	closePrice := parseFloat(k.Get("c").String())
	if closePrice <= 0 {
		return market.PriceSample{}, false
	}
	return market.PriceSample{
		Symbol:    symbol,
		EventTime: eventTime,
		Open:      parseFloat(k.Get("o").String()),
		High:      parseFloat(k.Get("h").String()),
		Low:       parseFloat(k.Get("l").String()),
		Close:     closePrice,
		Volume:    parseFloat(k.Get("v").String()),
		Closed:    k.Get("x").Bool(),
	}, true
}

func (a *Adapter) dispatchSync(ctx context.Context, act tracker.Action) {
	if err := a.dispatcher.DispatchSync(ctx, act); err != nil {
		logger.Warnf("[stream] dispatch %T: %v", act, err)
	}
}

func (a *Adapter) recordSubscribeError(err error) {
	if err == nil {
		return
	}
	a.statsMu.Lock()
	a.stats.SubscribeErrors++
	a.stats.LastError = err.Error()
	a.statsMu.Unlock()
}

func (a *Adapter) recordReconnect(err error) {
	a.statsMu.Lock()
	a.stats.Reconnects++
	if err != nil && err.Error() != "" {
		a.stats.LastError = err.Error()
	}
	a.statsMu.Unlock()
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
