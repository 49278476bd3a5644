package metrics

import (
	"sort"

	"ecfr-dashboard/internal/ecfr"
)

// MaxRankedAgencies caps the agency chart.
const MaxRankedAgencies = 15

type AgencyWords struct {
	Name      string `json:"name"`
	WordCount int    `json:"wordCount"`
}

// RankAgencies keeps the agencies that reference title, estimates their
// word counts and returns the largest MaxRankedAgencies, descending.
func RankAgencies(agencies []ecfr.Agency, title string, est AgencyEstimator) []AgencyWords {
	out := []AgencyWords{}
	for _, a := range agencies {
		if !a.References(title) {
			continue
		}
		name := a.DisplayLabel()
		out = append(out, AgencyWords{Name: name, WordCount: est.EstimateAgency(name, title)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WordCount > out[j].WordCount })
	if len(out) > MaxRankedAgencies {
		out = out[:MaxRankedAgencies]
	}
	return out
}
