package config

import "strings"

// applyDefaults 填充缺省值，保证零配置也能启动。
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.App.Env) == "" {
		c.App.Env = "dev"
	}
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		c.App.HTTPAddr = ":8880"
	}

	if strings.TrimSpace(c.Stream.WSURL) == "" {
		c.Stream.WSURL = "wss://stream.binance.com:9443/ws"
	}
	if strings.TrimSpace(c.Stream.Interval) == "" {
		c.Stream.Interval = "1m"
	}
	if c.Stream.DialTimeoutSeconds <= 0 {
		c.Stream.DialTimeoutSeconds = 10
	}
	if c.Stream.ReconnectAttempts <= 0 {
		c.Stream.ReconnectAttempts = 10
	}
	if c.Stream.ReconnectDelaySeconds <= 0 {
		c.Stream.ReconnectDelaySeconds = 3
	}

	if strings.TrimSpace(c.Catalog.RESTBaseURL) == "" {
		c.Catalog.RESTBaseURL = "https://api.binance.com"
	}
	if strings.TrimSpace(c.Catalog.QuoteAsset) == "" {
		c.Catalog.QuoteAsset = "USDT"
	}
	if c.Catalog.SearchLimit <= 0 {
		c.Catalog.SearchLimit = 10
	}

	if c.Board.MaxInstruments <= 0 {
		c.Board.MaxInstruments = 15
	}
}
