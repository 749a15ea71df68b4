package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tickerboard/internal/market"

	binance "github.com/adshao/go-binance/v2"
)

// BinanceConfig tunes the exchange-info provider.
type BinanceConfig struct {
	RESTBaseURL string
	QuoteAsset  string
	HTTPTimeout time.Duration
}

func (c BinanceConfig) withDefaults() BinanceConfig {
	out := c
	out.RESTBaseURL = strings.TrimSpace(out.RESTBaseURL)
	out.QuoteAsset = strings.ToUpper(strings.TrimSpace(out.QuoteAsset))
	if out.QuoteAsset == "" {
		out.QuoteAsset = "USDT"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 10 * time.Second
	}
	return out
}

// BinanceProvider lists spot instruments from the exchange-info
// endpoint, keeping only actively trading pairs on the configured
// quote asset.
type BinanceProvider struct {
	cfg    BinanceConfig
	client *binance.Client
}

func NewBinanceProvider(cfg BinanceConfig) *BinanceProvider {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	if final.RESTBaseURL != "" {
		client.BaseURL = final.RESTBaseURL
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &BinanceProvider{cfg: final, client: client}
}

func (p *BinanceProvider) Name() string { return "binance" }

func (p *BinanceProvider) List(ctx context.Context) ([]market.Instrument, error) {
	info, err := p.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching exchange info: %w", err)
	}
	out := make([]market.Instrument, 0, len(info.Symbols))
	for _, sym := range info.Symbols {
		if sym.Status != "TRADING" || !strings.HasSuffix(sym.Symbol, p.cfg.QuoteAsset) {
			continue
		}
		out = append(out, market.Instrument{
			Symbol:     sym.Symbol,
			BaseAsset:  sym.BaseAsset,
			QuoteAsset: sym.QuoteAsset,
			Status:     sym.Status,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no trading %s pairs in exchange info", p.cfg.QuoteAsset)
	}
	return out, nil
}

// StaticProvider serves a fixed instrument list. Useful for tests and
// offline runs.
type StaticProvider struct{ instruments []market.Instrument }

func NewStaticProvider(instruments []market.Instrument) *StaticProvider {
	return &StaticProvider{instruments: instruments}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) List(_ context.Context) ([]market.Instrument, error) {
	if len(p.instruments) == 0 {
		return nil, fmt.Errorf("instrument list is empty")
	}
	return p.instruments, nil
}
