package metrics

import (
	"context"
	"sort"

	"ecfr-dashboard/internal/store"
)

// GrowthHotspot captures a large increase of a journal metric over a window.
type GrowthHotspot struct {
	Title  string  `json:"title"`
	Metric string  `json:"metric"`
	Delta  float64 `json:"delta"`
	From   float64 `json:"from"`
	To     float64 `json:"to"`
	Window int     `json:"window"`
}

// GrowthHotspots returns the top titles with the largest increase of a
// numeric journal metric across their last window entries.
func GrowthHotspots(ctx context.Context, st *store.Store, metric string, window, limit int) ([]GrowthHotspot, error) {
	titles, err := st.Titles(ctx, metric)
	if err != nil {
		return nil, err
	}
	results := make([]GrowthHotspot, 0, len(titles))
	for _, title := range titles {
		series, err := st.ChartMetricSeries(ctx, title, metric, window)
		if err != nil {
			return nil, err
		}
		if len(series) < 2 {
			continue
		}
		// series is newest -> oldest
		firstVal, ok1 := series[len(series)-1].Value.(float64)
		lastVal, ok2 := series[0].Value.(float64)
		if !ok1 || !ok2 {
			continue
		}
		delta := lastVal - firstVal
		if delta <= 0 {
			continue
		}
		results = append(results, GrowthHotspot{
			Title:  title,
			Metric: metric,
			Delta:  delta,
			From:   firstVal,
			To:     lastVal,
			Window: window,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Delta > results[j].Delta })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
