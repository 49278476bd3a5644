package metrics

import (
	"math"
	"sort"
	"time"

	"ecfr-dashboard/internal/ecfr"
)

type Direction string

const (
	TrendUp      Direction = "up"
	TrendDown    Direction = "down"
	TrendNeutral Direction = "neutral"
)

const (
	trendWindow    = 6
	trendThreshold = 5.0
)

type MonthlyAmendments struct {
	Date       string `json:"date"`
	Amendments int    `json:"amendments"`
}

// Trend compares the recent halves of the monthly amendment series.
type Trend struct {
	Direction  Direction `json:"trend"`
	Percentage int       `json:"percentage"`
	Change     float64   `json:"change"`
}

var amendmentLayouts = []string{"2006-01-02", time.RFC3339, "2006-01"}

// AmendmentsByMonth buckets versions by the YYYY-MM of their amendment date,
// ascending. Versions without a parseable amendment date are dropped.
func AmendmentsByMonth(versions []ecfr.VersionRecord) []MonthlyAmendments {
	counts := map[string]int{}
	for _, v := range versions {
		month, ok := amendmentMonth(v.AmendmentDate)
		if !ok {
			continue
		}
		counts[month]++
	}
	out := make([]MonthlyAmendments, 0, len(counts))
	for month, n := range counts {
		out = append(out, MonthlyAmendments{Date: month, Amendments: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func amendmentMonth(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, layout := range amendmentLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}

// CalculateTrend looks at the last six months. The window is split at
// len/2 (an odd extra month lands in the second half) and the half averages
// are compared. When the first half averages exactly zero the change is
// secondAvg*100, which is not a percentage.
func CalculateTrend(months []MonthlyAmendments) Trend {
	if len(months) < 2 {
		return Trend{Direction: TrendNeutral}
	}
	recent := months
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	mid := len(recent) / 2
	firstAvg := averageAmendments(recent[:mid])
	secondAvg := averageAmendments(recent[mid:])

	var change float64
	if firstAvg == 0 {
		change = secondAvg * 100
	} else {
		change = (secondAvg - firstAvg) / firstAvg * 100
	}

	t := Trend{
		Direction:  TrendNeutral,
		Change:     change,
		Percentage: int(math.Abs(round(change))),
	}
	switch {
	case change > trendThreshold:
		t.Direction = TrendUp
	case change < -trendThreshold:
		t.Direction = TrendDown
	}
	return t
}

func averageAmendments(months []MonthlyAmendments) float64 {
	if len(months) == 0 {
		return 0
	}
	sum := 0
	for _, m := range months {
		sum += m.Amendments
	}
	return float64(sum) / float64(len(months))
}
