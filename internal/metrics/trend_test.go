package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecfr-dashboard/internal/ecfr"
)

func months(counts ...int) []MonthlyAmendments {
	out := make([]MonthlyAmendments, len(counts))
	for i, c := range counts {
		out[i] = MonthlyAmendments{Date: "2023-" + string(rune('a'+i)), Amendments: c}
	}
	return out
}

func TestAmendmentsByMonth(t *testing.T) {
	versions := []ecfr.VersionRecord{
		{AmendmentDate: "2023-03-02"},
		{AmendmentDate: "2023-01-15"},
		{AmendmentDate: "2023-01-20"},
		{Date: "2023-02-01"},
		{AmendmentDate: "not a date"},
		{AmendmentDate: "2022-12-31"},
	}

	got := AmendmentsByMonth(versions)
	assert.Equal(t, []MonthlyAmendments{
		{Date: "2022-12", Amendments: 1},
		{Date: "2023-01", Amendments: 2},
		{Date: "2023-03", Amendments: 1},
	}, got)
}

func TestAmendmentsByMonthEmpty(t *testing.T) {
	assert.Empty(t, AmendmentsByMonth(nil))
	assert.Empty(t, AmendmentsByMonth([]ecfr.VersionRecord{{Identifier: "1.1"}}))
}

func TestCalculateTrend(t *testing.T) {
	tests := map[string]struct {
		months     []MonthlyAmendments
		direction  Direction
		percentage int
		change     float64
	}{
		"halving is down 50": {
			months:     months(10, 10, 10, 5, 5, 5),
			direction:  TrendDown,
			percentage: 50,
			change:     -50,
		},
		"split at three of six": {
			// first [10,10,10], second [10,5,5]
			months:     months(10, 10, 10, 10, 5, 5),
			direction:  TrendDown,
			percentage: 33,
			change:     -100.0 / 3,
		},
		"zero first half scales second average": {
			months:     months(0, 3),
			direction:  TrendUp,
			percentage: 300,
			change:     300,
		},
		"fewer than two months is neutral": {
			months:    months(7),
			direction: TrendNeutral,
		},
		"no months is neutral": {
			direction: TrendNeutral,
		},
		"small change is neutral": {
			months:     months(100, 104),
			direction:  TrendNeutral,
			percentage: 4,
			change:     4,
		},
		"odd window puts extra month in second half": {
			// first [2], second [4, 6] -> avg 2 vs 5
			months:     months(2, 4, 6),
			direction:  TrendUp,
			percentage: 150,
			change:     150,
		},
		"only last six months count": {
			// 100 is outside the window: first [1,1,1], second [2,2,2]
			months:     months(100, 1, 1, 1, 2, 2, 2),
			direction:  TrendUp,
			percentage: 100,
			change:     100,
		},
		"both halves zero": {
			months:    months(0, 0),
			direction: TrendNeutral,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := CalculateTrend(tc.months)
			assert.Equal(t, tc.direction, got.Direction)
			assert.Equal(t, tc.percentage, got.Percentage)
			assert.InDelta(t, tc.change, got.Change, 1e-9)
		})
	}
}

func TestCalculateTrendRoundsHalfUp(t *testing.T) {
	// 8 -> 7 is exactly -12.5%, displayed as 12.
	got := CalculateTrend(months(8, 7))
	assert.Equal(t, TrendDown, got.Direction)
	assert.Equal(t, -12.5, got.Change)
	assert.Equal(t, 12, got.Percentage)
}
