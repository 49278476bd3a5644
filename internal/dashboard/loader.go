package dashboard

import (
	"context"
	"time"

	"ecfr-dashboard/internal/ecfr"
	"ecfr-dashboard/internal/metrics"
	"ecfr-dashboard/internal/store"
)

// Fetcher is the subset of the eCFR client the charts need.
type Fetcher interface {
	Titles(ctx context.Context) ([]ecfr.Title, error)
	Agencies(ctx context.Context) ([]ecfr.Agency, error)
	SectionVersions(ctx context.Context, title string) ([]ecfr.VersionRecord, error)
	FullStructure(ctx context.Context, title, date string) (*ecfr.TitleNode, error)
}

// StructureChart is the hierarchy of one title at one date.
type StructureChart struct {
	metrics.Hierarchy
	Checksum string `json:"checksum"`
}

// AmendmentHistory is the monthly amendment series of a title and its trend.
type AmendmentHistory struct {
	Months []metrics.MonthlyAmendments `json:"months"`
	Trend  metrics.Trend               `json:"trend"`
}

// Loader fetches and aggregates one chart at a time. It keeps no state
// between calls.
type Loader struct {
	fetcher  Fetcher
	sections metrics.SectionEstimator
	agencies metrics.AgencyEstimator
	now      func() time.Time
}

func NewLoader(f Fetcher, sections metrics.SectionEstimator, agencies metrics.AgencyEstimator) *Loader {
	if sections == nil {
		sections = metrics.RandomSectionEstimator{}
	}
	if agencies == nil {
		agencies = metrics.BaselineAgencyEstimator{}
	}
	return &Loader{fetcher: f, sections: sections, agencies: agencies, now: time.Now}
}

func (l *Loader) Titles(ctx context.Context) ([]ecfr.Title, error) {
	return l.fetcher.Titles(ctx)
}

// DefaultDate resolves the date of a selection that names none.
func (l *Loader) DefaultDate(ctx context.Context) (string, error) {
	titles, err := l.fetcher.Titles(ctx)
	if err != nil {
		return "", err
	}
	return DefaultDate(titles, l.now()), nil
}

func (l *Loader) Structure(ctx context.Context, title, date string) (StructureChart, error) {
	root, err := l.fetcher.FullStructure(ctx, title, date)
	if err != nil {
		return StructureChart{}, err
	}
	return StructureChart{
		Hierarchy: metrics.CountHierarchy(root),
		Checksum:  ecfr.StructureChecksum(root),
	}, nil
}

func (l *Loader) WordCount(ctx context.Context, title, date string) (metrics.WordCounts, error) {
	root, err := l.fetcher.FullStructure(ctx, title, date)
	if err != nil {
		return metrics.WordCounts{}, err
	}
	return metrics.EstimateWordCounts(root, l.sections), nil
}

func (l *Loader) Amendments(ctx context.Context, title string) (AmendmentHistory, error) {
	versions, err := l.fetcher.SectionVersions(ctx, title)
	if err != nil {
		return AmendmentHistory{}, err
	}
	months := metrics.AmendmentsByMonth(versions)
	return AmendmentHistory{Months: months, Trend: metrics.CalculateTrend(months)}, nil
}

func (l *Loader) Agencies(ctx context.Context, title string) ([]metrics.AgencyWords, error) {
	agencies, err := l.fetcher.Agencies(ctx)
	if err != nil {
		return nil, err
	}
	return metrics.RankAgencies(agencies, title, l.agencies), nil
}

// load runs one chart for sel and returns its state plus the summary
// metrics worth journaling.
func (l *Loader) load(ctx context.Context, sel Selection, chart Chart) (ChartState, []store.Metric, error) {
	switch chart {
	case ChartStructure:
		s, err := l.Structure(ctx, sel.Title, sel.Date)
		if err != nil {
			return ChartState{}, nil, err
		}
		return ChartState{Structure: &s}, []store.Metric{
			store.Num(store.MetricTotalItems, float64(s.TotalItems)),
			store.Num(store.MetricSectionsPerPart, s.SectionsPerPart),
			store.Text(store.MetricStructureChecksum, s.Checksum),
		}, nil
	case ChartWordCount:
		wc, err := l.WordCount(ctx, sel.Title, sel.Date)
		if err != nil {
			return ChartState{}, nil, err
		}
		return ChartState{WordCount: &wc}, []store.Metric{
			store.Num(store.MetricTotalWords, float64(wc.TotalWords)),
			store.Num(store.MetricTotalSections, float64(wc.TotalSections)),
		}, nil
	case ChartAmendments:
		h, err := l.Amendments(ctx, sel.Title)
		if err != nil {
			return ChartState{}, nil, err
		}
		return ChartState{Amendments: &h}, []store.Metric{
			store.Num(store.MetricAmendmentChange, h.Trend.Change),
			store.Num(store.MetricAmendmentMonths, float64(len(h.Months))),
		}, nil
	case ChartAgencies:
		ranked, err := l.Agencies(ctx, sel.Title)
		if err != nil {
			return ChartState{}, nil, err
		}
		return ChartState{Agencies: ranked}, []store.Metric{
			store.Num(store.MetricAgencyCount, float64(len(ranked))),
		}, nil
	}
	return ChartState{}, nil, nil
}
