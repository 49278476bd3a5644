package metrics

import (
	"sort"
	"unicode/utf16"

	"ecfr-dashboard/internal/ecfr"
)

const wordsPerMinute = 250

// Section length thresholds on identifier+description length.
const (
	longSectionScore   = 40
	mediumSectionScore = 20
)

type ChapterWords struct {
	Chapter   string `json:"chapter"`
	WordCount int    `json:"wordCount"`
}

type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type LengthBuckets struct {
	Short  int `json:"short"`
	Medium int `json:"medium"`
	Long   int `json:"long"`
}

// Slices returns the buckets as pie chart rows.
func (b LengthBuckets) Slices() []Slice {
	return []Slice{
		{Name: "Short sections", Value: b.Short},
		{Name: "Medium sections", Value: b.Medium},
		{Name: "Long sections", Value: b.Long},
	}
}

// WordCounts is the estimated size of one title at one date.
type WordCounts struct {
	Chapters           []ChapterWords `json:"chapters"`
	Lengths            LengthBuckets  `json:"lengths"`
	Distribution       []Slice        `json:"distribution"`
	SectionsByChapter  map[string]int `json:"sectionsByChapter"`
	TotalWords         int            `json:"totalWords"`
	TotalSections      int            `json:"totalSections"`
	AvgWordsPerSection int            `json:"avgWordsPerSection"`
	ReadingMinutes     int            `json:"estimatedReadingTime"`
}

// EstimateWordCounts attributes every non-reserved section under a
// non-reserved top-level chapter to that chapter, however deep it sits.
// Unlike CountHierarchy, reserved parts and subparts are still descended:
// only reserved sections themselves are skipped.
func EstimateWordCounts(root *ecfr.TitleNode, est SectionEstimator) WordCounts {
	wc := WordCounts{
		Chapters:          []ChapterWords{},
		SectionsByChapter: map[string]int{},
	}
	if root == nil {
		wc.Distribution = wc.Lengths.Slices()
		return wc
	}

	var order []string
	chapterNodes := map[string]*ecfr.TitleNode{}
	for i := range root.Children {
		chapter := &root.Children[i]
		if chapter.Type != ecfr.NodeChapter || chapter.Reserved {
			continue
		}
		if _, seen := chapterNodes[chapter.Identifier]; !seen {
			order = append(order, chapter.Identifier)
			chapterNodes[chapter.Identifier] = chapter
		}
		wc.SectionsByChapter[chapter.Identifier] += countSections(chapter, &wc.Lengths)
	}

	for _, id := range order {
		n := wc.SectionsByChapter[id]
		wc.Chapters = append(wc.Chapters, ChapterWords{
			Chapter:   "Chapter " + id,
			WordCount: est.EstimateChapter(chapterNodes[id], n),
		})
		wc.TotalSections += n
	}
	sort.SliceStable(wc.Chapters, func(i, j int) bool {
		return wc.Chapters[i].WordCount > wc.Chapters[j].WordCount
	})

	for _, c := range wc.Chapters {
		wc.TotalWords += c.WordCount
	}
	if wc.TotalSections > 0 {
		wc.AvgWordsPerSection = int(round(float64(wc.TotalWords) / float64(wc.TotalSections)))
	}
	wc.ReadingMinutes = int(round(float64(wc.TotalWords) / wordsPerMinute))
	wc.Distribution = wc.Lengths.Slices()
	return wc
}

func countSections(n *ecfr.TitleNode, lengths *LengthBuckets) int {
	count := 0
	if n.Type == ecfr.NodeSection && !n.Reserved {
		count++
		switch score := textLen(n.Identifier) + textLen(n.LabelDescription); {
		case score > longSectionScore:
			lengths.Long++
		case score > mediumSectionScore:
			lengths.Medium++
		default:
			lengths.Short++
		}
	}
	for i := range n.Children {
		count += countSections(&n.Children[i], lengths)
	}
	return count
}

// textLen measures labels in UTF-16 code units, the unit the thresholds
// were tuned against.
func textLen(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
