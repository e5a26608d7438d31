package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/model"
	"StockPulse/internal/recorder"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

var errBadRequest = errors.New("bad request")

// Defaults are the settings a request falls back to.
type Defaults struct {
	Tickers    []string
	Interval   string
	Period     string
	Params     model.Params
	Options    Options
	MaxColumns int
}

// DefaultsFromConfig reads the dashboard settings out of cfg.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		Tickers:  cfg.Dashboard.Tickers,
		Interval: cfg.Dashboard.Interval,
		Period:   cfg.Dashboard.Period,
		Params:   cfg.Indicators,
		Options: Options{
			ShowCandles: *cfg.Dashboard.ShowCandles,
			ShowRSI:     *cfg.Dashboard.ShowRSI,
			ShowMACD:    *cfg.Dashboard.ShowMACD,
		},
		MaxColumns: cfg.Dashboard.Columns,
	}
}

// Handler serves the dashboard page and its JSON API.
type Handler struct {
	Collector *collector.Collector
	Store     *collector.Store
	Recorder  recorder.Recorder
	Defaults  Defaults
}

// NewHandler creates a Handler. store and rec may be nil.
func NewHandler(col *collector.Collector, store *collector.Store, rec recorder.Recorder, def Defaults) *Handler {
	if store == nil {
		store = collector.NewStore()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{Collector: col, Store: store, Recorder: rec, Defaults: def}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/snapshot/:symbol", h.Snapshot)
	g.GET("/fetches", h.Fetches)
}

// request is a parsed dashboard query.
type request struct {
	Tickers  []string
	Interval string
	Period   string
	Params   model.Params
	Options  Options
}

func (h *Handler) parseRequest(c echo.Context) (request, error) {
	def := h.Defaults
	req := request{
		Tickers:  def.Tickers,
		Interval: def.Interval,
		Period:   def.Period,
		Params:   def.Params,
		Options:  def.Options,
	}
	if v := c.QueryParam("tickers"); v != "" {
		req.Tickers = config.ParseTickers(v)
	}
	if v := c.QueryParam("interval"); v != "" {
		if !collector.ValidInterval(v) {
			return req, fmt.Errorf("%w: interval %q not in %v", errBadRequest, v, collector.Intervals)
		}
		req.Interval = v
	}
	if v := c.QueryParam("period"); v != "" {
		if !collector.ValidPeriod(v) {
			return req, fmt.Errorf("%w: period %q not in %v", errBadRequest, v, collector.Periods)
		}
		req.Period = v
	}
	qp := c.QueryParams()
	if _, ok := qp["sma"]; ok {
		w, err := ParseWindows(c.QueryParam("sma"))
		if err != nil {
			return req, fmt.Errorf("%w: sma: %v", errBadRequest, err)
		}
		req.Params.SMAWindows = w
	}
	if _, ok := qp["ema"]; ok {
		w, err := ParseWindows(c.QueryParam("ema"))
		if err != nil {
			return req, fmt.Errorf("%w: ema: %v", errBadRequest, err)
		}
		req.Params.EMAWindows = w
	}
	req.Options.ShowCandles = boolParam(c, "candles", req.Options.ShowCandles)
	req.Options.ShowRSI = boolParam(c, "rsi", req.Options.ShowRSI)
	req.Options.ShowMACD = boolParam(c, "macd", req.Options.ShowMACD)
	return req, nil
}

// ParseWindows parses "20,50" into window sizes. An empty string selects no windows.
func ParseWindows(s string) ([]int, error) {
	out := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("window %q: %w", part, err)
		}
		if w < 1 {
			return nil, fmt.Errorf("window %d: %w", w, model.ErrInvalidWindow)
		}
		out = append(out, w)
	}
	return out, nil
}

// boolParam reads a checkbox toggle. The form sends a hidden "false" ahead
// of the checkbox, so the last value wins.
func boolParam(c echo.Context, name string, def bool) bool {
	vals := c.QueryParams()[name]
	if len(vals) == 0 || vals[len(vals)-1] == "" {
		return def
	}
	b, err := strconv.ParseBool(vals[len(vals)-1])
	if err != nil {
		return def
	}
	return b
}

// usesDefaults reports whether the refresh store can answer req.
func (h *Handler) usesDefaults(req request) bool {
	return req.Interval == h.Defaults.Interval && req.Period == h.Defaults.Period && req.Params.Equal(h.Defaults.Params)
}

// snapshot serves from the refresh store when the request matches the
// configured defaults, and fetches live otherwise.
func (h *Handler) snapshot(c echo.Context, symbol string, req request) *collector.Snapshot {
	if h.usesDefaults(req) {
		if snap, ok := h.Store.Get(symbol); ok {
			return snap
		}
	}
	q := collector.Query{Symbol: symbol, Interval: req.Interval, Period: req.Period}
	return h.Collector.Collect(c.Request().Context(), q, req.Params)
}

func (h *Handler) page(c echo.Context, req request) Page {
	snaps := make([]*collector.Snapshot, len(req.Tickers))
	missing := make([]string, 0, len(req.Tickers))
	missingIdx := make([]int, 0, len(req.Tickers))
	for i, sym := range req.Tickers {
		if h.usesDefaults(req) {
			if snap, ok := h.Store.Get(sym); ok {
				snaps[i] = snap
				continue
			}
		}
		missing = append(missing, sym)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) > 0 {
		live := h.Collector.CollectAll(c.Request().Context(), missing, req.Interval, req.Period, req.Params)
		for j, snap := range live {
			snaps[missingIdx[j]] = snap
		}
	}
	page := NewPage(snaps, req.Options, h.Defaults.MaxColumns)
	page.Interval, page.Period = req.Interval, req.Period
	return page
}

func (h *Handler) Index(c echo.Context) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data := struct {
		Tickers   string
		Interval  string
		Period    string
		SMA       string
		EMA       string
		Options   Options
		Intervals []string
		Periods   []string
	}{
		Tickers:   strings.Join(req.Tickers, ","),
		Interval:  req.Interval,
		Period:    req.Period,
		SMA:       joinInts(req.Params.SMAWindows),
		EMA:       joinInts(req.Params.EMAWindows),
		Options:   req.Options,
		Intervals: collector.Intervals,
		Periods:   collector.Periods,
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("render dashboard")
		return echo.NewHTTPError(http.StatusInternalServerError, "render dashboard")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *Handler) Dashboard(c echo.Context) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.page(c, req))
}

func (h *Handler) Snapshot(c echo.Context) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "symbol is required")
	}
	snap := h.snapshot(c, symbol, req)
	panel := BuildPanel(snap, req.Options)
	panel.Snapshot = snap
	return c.JSON(http.StatusOK, panel)
}

func (h *Handler) Fetches(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	events, err := h.Recorder.RecentFetches(limit)
	if err != nil {
		log.Error().Err(err).Msg("list fetch events")
		return echo.NewHTTPError(http.StatusInternalServerError, "list fetch events")
	}
	if events == nil {
		events = []recorder.FetchEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"tickers":    len(h.Store.All()),
		"updated_at": h.Store.UpdatedAt(),
	})
}

func joinInts(ws []int) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ",")
}
