package config

// Config 是 Tickerboard 的主配置载体。
type Config struct {
	App     AppConfig     `toml:"app"`
	Stream  StreamConfig  `toml:"stream"`
	Catalog CatalogConfig `toml:"catalog"`
	Board   BoardConfig   `toml:"board"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// StreamConfig 控制行情流连接与重连。
type StreamConfig struct {
	WSURL                 string `toml:"ws_url"`
	Interval              string `toml:"interval"`
	DialTimeoutSeconds    int    `toml:"dial_timeout_seconds"`
	ReconnectAttempts     int    `toml:"reconnect_attempts"`
	ReconnectDelaySeconds int    `toml:"reconnect_delay_seconds"`
}

// CatalogConfig 控制币种目录来源与搜索。
type CatalogConfig struct {
	RESTBaseURL string `toml:"rest_base_url"`
	QuoteAsset  string `toml:"quote_asset"`
	SearchLimit int    `toml:"search_limit"`
}

// BoardConfig 控制面板本身的限制。
type BoardConfig struct {
	MaxInstruments int `toml:"max_instruments"`
}
