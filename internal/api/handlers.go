package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"ecfr-dashboard/internal/dashboard"
	"ecfr-dashboard/internal/ecfr"
	"ecfr-dashboard/internal/metrics"
	"ecfr-dashboard/internal/store"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 1000
	defaultGrowthWindow = 10
	defaultGrowthLimit  = 5
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "time": time.Now().Format(time.RFC3339)})
}

func (s *Server) handleTitles(c echo.Context) error {
	titles, err := s.loader.Titles(c.Request().Context())
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, titles)
}

func (s *Server) handleStructure(c echo.Context) error {
	sel, err := chartSelection(c, dashboard.ViewTitleStructure, true)
	if err != nil {
		return err
	}
	out, err := s.loader.Structure(c.Request().Context(), sel.Title, sel.Date)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleWordCount(c echo.Context) error {
	sel, err := chartSelection(c, dashboard.ViewWordCount, true)
	if err != nil {
		return err
	}
	out, err := s.loader.WordCount(c.Request().Context(), sel.Title, sel.Date)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAmendments(c echo.Context) error {
	sel, err := chartSelection(c, dashboard.ViewHistoricalChanges, false)
	if err != nil {
		return err
	}
	out, err := s.loader.Amendments(c.Request().Context(), sel.Title)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAgencies(c echo.Context) error {
	sel, err := chartSelection(c, dashboard.ViewAgencyMetrics, false)
	if err != nil {
		return err
	}
	out, err := s.loader.Agencies(c.Request().Context(), sel.Title)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.dash.Snapshot())
}

func (s *Server) handleSelection(c echo.Context) error {
	var sel dashboard.Selection
	if err := c.Bind(&sel); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid selection body")
	}
	resolved, err := s.dash.Select(c.Request().Context(), sel)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusAccepted, resolved)
}

// /api/history?title=1&metric=total_words&limit=30
func (s *Server) handleHistory(c echo.Context) error {
	if s.journal == nil {
		return journalDisabled()
	}
	title, metric := c.QueryParam("title"), c.QueryParam("metric")
	if title == "" || metric == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and metric are required")
	}
	limit := intParam(c, "limit", defaultHistoryLimit, maxHistoryLimit)
	rows, err := s.journal.ChartMetricSeries(c.Request().Context(), title, metric, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// /api/history/latest?metric=structure_checksum
func (s *Server) handleLatest(c echo.Context) error {
	if s.journal == nil {
		return journalDisabled()
	}
	metric := c.QueryParam("metric")
	if metric == "" {
		metric = store.MetricTotalWords
	}
	rows, err := s.journal.LatestChartMetric(c.Request().Context(), metric)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleStatus(c echo.Context) error {
	if s.journal == nil {
		return journalDisabled()
	}
	lastRefresh, err := s.journal.GetState(c.Request().Context(), store.StateLastRefresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"last_refresh": lastRefresh,
		"generation":   s.dash.Snapshot().Generation,
	})
}

// /api/insights/growth?metric=total_words&window=10&limit=5
func (s *Server) handleGrowth(c echo.Context) error {
	if s.journal == nil {
		return journalDisabled()
	}
	metric := c.QueryParam("metric")
	if metric == "" {
		metric = store.MetricTotalWords
	}
	window := intParam(c, "window", defaultGrowthWindow, maxHistoryLimit)
	limit := intParam(c, "limit", defaultGrowthLimit, 100)
	out, err := metrics.GrowthHotspots(c.Request().Context(), s.journal, metric, window, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func journalDisabled() error {
	return echo.NewHTTPError(http.StatusNotFound, "journal is disabled")
}

// chartSelection reads title (and date when needed) from the query and
// validates them as a selection for view.
func chartSelection(c echo.Context, view dashboard.View, needDate bool) (dashboard.Selection, error) {
	sel := dashboard.Selection{Title: c.QueryParam("title"), Date: c.QueryParam("date"), View: view}
	if sel.Title == "" || (needDate && sel.Date == "") {
		if needDate {
			return sel, echo.NewHTTPError(http.StatusBadRequest, "title and date are required")
		}
		return sel, echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if !needDate {
		return sel, nil
	}
	if err := sel.Validate(); err != nil {
		return sel, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return sel, nil
}

// upstreamError maps eCFR fetch failures to 502.
func upstreamError(err error) error {
	var fe *ecfr.FetchError
	if errors.As(err, &fe) {
		return echo.NewHTTPError(http.StatusBadGateway, fe.Error()).SetInternal(err)
	}
	return err
}

// intParam returns a positive int query parameter no larger than upper, or def.
func intParam(c echo.Context, name string, def, upper int) int {
	if v := c.QueryParam(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= upper {
			return n
		}
	}
	return def
}
