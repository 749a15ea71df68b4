package binance

import (
	"strings"
	"time"
)

// Config holds websocket stream settings.
type Config struct {
	WSURL             string
	Interval          string
	DialTimeout       time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	out.WSURL = strings.TrimSpace(out.WSURL)
	if out.WSURL == "" {
		out.WSURL = "wss://stream.binance.com:9443/ws"
	}
	out.Interval = strings.ToLower(strings.TrimSpace(out.Interval))
	if out.Interval == "" {
		out.Interval = "1m"
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 10 * time.Second
	}
	if out.ReconnectAttempts <= 0 {
		out.ReconnectAttempts = 10
	}
	if out.ReconnectDelay <= 0 {
		out.ReconnectDelay = 3 * time.Second
	}
	return out
}
