package metrics

import (
	"math/rand/v2"
	"strconv"

	"ecfr-dashboard/internal/ecfr"
)

// SectionEstimator estimates the word count of a chapter that holds the
// given number of non-reserved sections. The structure endpoint carries no
// regulation text, so every implementation is an approximation.
type SectionEstimator interface {
	EstimateChapter(chapter *ecfr.TitleNode, sections int) int
}

// AgencyEstimator estimates how many words of a title an agency is
// responsible for.
type AgencyEstimator interface {
	EstimateAgency(name, title string) int
}

const (
	baseWordsPerSection   = 450
	wordsPerSectionSpread = 150
)

// RandomSectionEstimator assumes 450 to 599 words per section, drawn once per
// chapter. Results differ between calls on purpose.
type RandomSectionEstimator struct {
	// Rand overrides the global source. A *rand.Rand is not safe for
	// concurrent use; leave nil when the estimator is shared.
	Rand *rand.Rand
}

func (e RandomSectionEstimator) EstimateChapter(_ *ecfr.TitleNode, sections int) int {
	var jitter int
	if e.Rand != nil {
		jitter = e.Rand.IntN(wordsPerSectionSpread)
	} else {
		jitter = rand.IntN(wordsPerSectionSpread)
	}
	return sections * (baseWordsPerSection + jitter)
}

// FixedSectionEstimator multiplies the section count by a constant.
type FixedSectionEstimator int

func (e FixedSectionEstimator) EstimateChapter(_ *ecfr.TitleNode, sections int) int {
	return sections * int(e)
}

// LabelSectionEstimator counts the words of the section headings under a
// chapter. It is a lower bound: headings are all the structure carries.
type LabelSectionEstimator struct{}

func (LabelSectionEstimator) EstimateChapter(chapter *ecfr.TitleNode, _ int) int {
	if chapter == nil {
		return 0
	}
	return labelWords(chapter)
}

func labelWords(n *ecfr.TitleNode) int {
	words := 0
	if n.Type == ecfr.NodeSection && !n.Reserved {
		words += ecfr.WordCount(n.LabelDescription)
	}
	for i := range n.Children {
		words += labelWords(&n.Children[i])
	}
	return words
}

// agencyBaselines are reference word counts for well known agencies.
var agencyBaselines = map[string]int{
	"USDA":  42500,
	"DOJ":   38200,
	"DOD":   35700,
	"HHS":   32100,
	"DHS":   28400,
	"DOT":   26800,
	"DOL":   24200,
	"EPA":   21600,
	"DOE":   18900,
	"DOI":   17300,
	"TREAS": 15800,
	"ED":    14200,
	"HUD":   12500,
	"VA":    9800,
	"SBA":   7300,
}

const (
	minUnknownAgencyWords  = 5000
	unknownAgencyWordRange = 15000
)

// BaselineAgencyEstimator scales a known baseline by (title mod 5 + 0.8) and
// falls back to a random value in [5000, 20000) for unknown agencies.
type BaselineAgencyEstimator struct {
	Rand *rand.Rand
}

func (e BaselineAgencyEstimator) EstimateAgency(name, title string) int {
	base, ok := agencyBaselines[name]
	if !ok {
		if e.Rand != nil {
			return minUnknownAgencyWords + e.Rand.IntN(unknownAgencyWordRange)
		}
		return minUnknownAgencyWords + rand.IntN(unknownAgencyWordRange)
	}
	factor := float64(leadingInt(title)%5) + 0.8
	return int(round(float64(base) * factor))
}

// leadingInt parses the leading decimal digits of s, 0 when there are none.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
