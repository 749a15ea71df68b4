package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Stream.validate(); err != nil {
		return err
	}
	if err := c.Board.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %q", a.LogLevel)
	}
	return nil
}

func (s *StreamConfig) validate() error {
	url := strings.TrimSpace(s.WSURL)
	if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
		return fmt.Errorf("stream.ws_url must start with ws:// or wss://, got %q", s.WSURL)
	}
	if s.ReconnectAttempts > 100 {
		return fmt.Errorf("stream.reconnect_attempts must be <= 100")
	}
	return nil
}

func (b *BoardConfig) validate() error {
	if b.MaxInstruments > 50 {
		return fmt.Errorf("board.max_instruments must be <= 50")
	}
	return nil
}
