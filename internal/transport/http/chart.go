package boardhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"tickerboard/internal/tracker"

	"github.com/chromedp/chromedp"
	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	chartWidthPx  = 1280
	chartHeightPx = 640

	chartBackground    = "#ffffff"
	chartTextSecondary = "#6b7280"
)

func (h *handler) chartHTML(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	html, err := buildChartHTML(s)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (h *handler) chartPNG(c *gin.Context) {
	s := h.dispatcher.Snapshot()
	html, err := buildChartHTML(s)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	png, err := renderHTMLToPNG(c.Request.Context(), html, chartWidthPx, chartHeightPx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("rendering chart: %v", err)})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// buildChartHTML renders one line per visible instrument over the
// union of event times across their histories.
func buildChartHTML(s *tracker.State) ([]byte, error) {
	visible := tracker.VisibleSelection(s)
	if len(visible) == 0 {
		return nil, fmt.Errorf("no visible instruments to chart")
	}

	timeSet := make(map[int64]struct{})
	for _, e := range visible {
		for _, smp := range s.Histories[e.Instrument.Symbol] {
			timeSet[smp.EventTime] = struct{}{}
		}
	}
	if len(timeSet) == 0 {
		return nil, fmt.Errorf("no samples to chart")
	}
	times := make([]int64, 0, len(timeSet))
	for ts := range timeSet {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	index := make(map[int64]int, len(times))
	xAxis := make([]string, len(times))
	for i, ts := range times {
		index[ts] = i
		xAxis[i] = time.UnixMilli(ts).UTC().Format("15:04:05")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Price history", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
		}),
	)
	line.SetXAxis(xAxis)

	for _, e := range visible {
		sym := e.Instrument.Symbol
		data := make([]opts.LineData, len(times))
		for i := range data {
			data[i] = opts.LineData{Value: nil}
		}
		for _, smp := range s.Histories[sym] {
			data[index[smp.EventTime]] = opts.LineData{Value: smp.Close}
		}
		line.AddSeries(sym, data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: e.Color, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: e.Color}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), ConnectNulls: opts.Bool(true)}),
		)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadlessAvailable probes for a usable headless browser once.
func EnsureHeadlessAvailable(ctx context.Context) error {
	headlessOnce.Do(func() {
		targetCtx := ctx
		if targetCtx == nil {
			targetCtx = context.Background()
		}
		parent, cancel := chromedp.NewContext(targetCtx)
		if cancel != nil {
			defer cancel()
		}
		headlessErr = chromedp.Run(parent)
	})
	return headlessErr
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
