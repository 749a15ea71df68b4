package boardhttp

import (
	"net/http"
	"strings"

	"tickerboard/internal/catalog"
	"tickerboard/internal/market"
	"tickerboard/internal/pkg/format"
	"tickerboard/internal/tracker"

	"github.com/gin-gonic/gin"
)

type handler struct {
	dispatcher *tracker.Dispatcher
	catalog    *catalog.Catalog
	stats      StatsSource
	maxTracked int
	now        func() int64
}

func (h *handler) register(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/instruments/search", h.searchInstruments)
		api.GET("/instruments", h.listInstruments)
		api.POST("/instruments", h.addInstrument)
		api.DELETE("/instruments", h.clearInstruments)
		api.DELETE("/instruments/:symbol", h.removeInstrument)
		api.GET("/prices/latest", h.latestPrices)
		api.GET("/prices/series", h.priceSeries)
		api.GET("/connection", h.connection)
		api.POST("/visibility/:symbol/toggle", h.toggleVisibility)
		api.POST("/visibility/all", h.showAll)
		api.POST("/visibility/:symbol/only", h.showOnly)
	}
	router.GET("/chart", h.chartHTML)
	router.GET("/chart.png", h.chartPNG)
}

type instrumentView struct {
	market.Instrument
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
}

func (h *handler) instrumentViews(s *tracker.State) []instrumentView {
	out := make([]instrumentView, 0, len(s.Selection))
	for _, e := range s.Selection {
		out = append(out, instrumentView{
			Instrument: e.Instrument,
			Color:      e.Color,
			Visible:    s.Visibility[e.Instrument.Symbol],
		})
	}
	return out
}

func (h *handler) searchInstruments(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "instrument catalog unavailable"})
		return
	}
	results := h.catalog.Search(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *handler) listInstruments(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	c.JSON(http.StatusOK, gin.H{"instruments": h.instrumentViews(s)})
}

type addInstrumentRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func (h *handler) addInstrument(c *gin.Context) {
	var req addInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	// An empty catalog (refresh never succeeded) falls back to the
	// symbol as typed so the board stays usable offline.
	ins := market.Instrument{Symbol: symbol}
	if h.catalog != nil && h.catalog.Len() > 0 {
		found, ok := h.catalog.Lookup(symbol)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument: " + symbol})
			return
		}
		ins = found
	}

	s := h.dispatcher.Snapshot()
	if s.Selected(ins.Symbol) {
		c.JSON(http.StatusConflict, gin.H{"error": "instrument already tracked: " + ins.Symbol})
		return
	}
	if len(s.Selection) >= h.maxTracked {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "instrument limit reached",
			"limit": h.maxTracked,
		})
		return
	}

	wasEmpty := len(s.Selection) == 0
	ctx := c.Request.Context()
	if err := h.dispatcher.DispatchSync(ctx, tracker.AddInstrument{Instrument: ins}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if wasEmpty {
		// The first instrument turns the stream on and stamps the
		// session, mirroring a fresh board.
		h.dispatcher.Dispatch(tracker.SetDesiredConnection{Desired: true})
		h.dispatcher.Dispatch(tracker.SetLoading{Loading: true})
		h.dispatcher.Dispatch(tracker.SetSessionStart{StartedAt: h.now()})
	}
	if _, seen := s.Visibility[ins.Symbol]; !seen {
		h.dispatcher.Dispatch(tracker.ToggleVisibility{Symbol: ins.Symbol})
	}

	c.JSON(http.StatusCreated, gin.H{"instrument": ins})
}

func (h *handler) removeInstrument(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	s := h.dispatcher.Snapshot()
	if !s.Selected(symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "instrument not tracked: " + symbol})
		return
	}
	ctx := c.Request.Context()
	if err := h.dispatcher.DispatchSync(ctx, tracker.RemoveInstrument{Symbol: symbol}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.dispatcher.Dispatch(tracker.ClearHistory{Symbol: symbol})
	c.Status(http.StatusNoContent)
}

func (h *handler) clearInstruments(c *gin.Context) {
	if err := h.dispatcher.DispatchSync(c.Request.Context(), tracker.ClearAllInstruments{}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type latestView struct {
	Symbol        string  `json:"symbol"`
	Color         string  `json:"color"`
	Price         float64 `json:"price"`
	PriceText     string  `json:"price_text"`
	EventTime     int64   `json:"event_time"`
	Change        string  `json:"change,omitempty"`
	ChangePercent string  `json:"change_percent,omitempty"`
}

func (h *handler) latestPrices(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	latest := tracker.LatestPerInstrument(s)
	out := make([]latestView, 0, len(latest))
	for _, smp := range latest {
		view := latestView{
			Symbol:    smp.Symbol,
			Color:     s.Colors[smp.Symbol],
			Price:     smp.Close,
			PriceText: format.Price(smp.Close),
			EventTime: smp.EventTime,
		}
		if smp.Change != nil {
			view.Change = format.Change(*smp.Change)
		}
		if smp.ChangePercent != nil {
			view.ChangePercent = format.Percent(*smp.ChangePercent)
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"prices": out, "loading": s.Loading})
}

func (h *handler) priceSeries(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	c.JSON(http.StatusOK, gin.H{"samples": tracker.AllSamplesFlat(s)})
}

func (h *handler) connection(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	resp := gin.H{"connection": tracker.Connection(s)}
	if h.stats != nil {
		resp["transport"] = h.stats.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) toggleVisibility(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if err := h.dispatcher.DispatchSync(c.Request.Context(), tracker.ToggleVisibility{Symbol: symbol}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s := h.dispatcher.Snapshot()
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "visible": s.Visibility[symbol]})
}

func (h *handler) showAll(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	act := tracker.SetAllVisible{Symbols: s.SelectedSymbols()}
	if err := h.dispatcher.DispatchSync(c.Request.Context(), act); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visible": act.Symbols})
}

func (h *handler) showOnly(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if err := h.dispatcher.DispatchSync(c.Request.Context(), tracker.SetOnlyVisible{Symbol: symbol}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"visible": []string{symbol}})
}
