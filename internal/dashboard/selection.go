// Package dashboard holds the current (title, date, view) selection and the
// per-chart load state derived from it. Loads for a selection run
// concurrently; a result is only applied while its selection is current.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"ecfr-dashboard/internal/ecfr"
)

type View string

const (
	ViewOverview          View = "overview"
	ViewAgencyMetrics     View = "agency-metrics"
	ViewHistoricalChanges View = "historical-changes"
	ViewTitleStructure    View = "title-structure"
	ViewWordCount         View = "word-count"
)

type Chart string

const (
	ChartStructure  Chart = "structure"
	ChartWordCount  Chart = "wordcount"
	ChartAmendments Chart = "amendments"
	ChartAgencies   Chart = "agencies"
)

// AllCharts is every chart in display order.
var AllCharts = []Chart{ChartStructure, ChartWordCount, ChartAmendments, ChartAgencies}

// Charts returns the charts shown by a view, nil for an unknown view.
func (v View) Charts() []Chart {
	switch v {
	case ViewOverview:
		return AllCharts
	case ViewAgencyMetrics:
		return []Chart{ChartAgencies}
	case ViewHistoricalChanges:
		return []Chart{ChartAmendments}
	case ViewTitleStructure:
		return []Chart{ChartStructure}
	case ViewWordCount:
		return []Chart{ChartWordCount}
	}
	return nil
}

func (v View) Valid() bool { return v.Charts() != nil }

const dateLayout = "2006-01-02"

// Selection is the explicit input of every load.
type Selection struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	View  View   `json:"view"`
}

// Validate checks a resolved selection.
func (s Selection) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if !s.View.Valid() {
		return fmt.Errorf("unknown view %q", s.View)
	}
	if _, err := time.Parse(dateLayout, s.Date); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s.Date)
	}
	return nil
}

// DefaultDate picks the date used when a selection names none: the latest
// amendment date of the first listed title, then its up-to-date date, then
// today in UTC.
func DefaultDate(titles []ecfr.Title, now time.Time) string {
	if len(titles) > 0 {
		if d := titles[0].LatestAmendedOn; d != "" {
			return d
		}
		if d := titles[0].UpToDateAsOf; d != "" {
			return d
		}
	}
	return now.UTC().Format(dateLayout)
}
