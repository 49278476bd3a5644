// Package metrics turns eCFR structure, version and agency documents into
// chart-ready aggregate rows. Every function here is pure: it reads the
// decoded document and never mutates it.
package metrics

import (
	"ecfr-dashboard/internal/ecfr"
)

// Hierarchy level labels, in the order they are charted.
const (
	LevelChapters   = "chapters"
	LevelParts      = "parts"
	LevelSections   = "sections"
	LevelSubparts   = "subparts"
	LevelAppendices = "appendices"
)

type LevelCount struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

// Hierarchy is the structure composition of one title at one date.
type Hierarchy struct {
	Levels          []LevelCount `json:"levels"`
	TotalItems      int          `json:"totalItems"`
	Depth           int          `json:"depth"`
	SectionsPerPart float64      `json:"sectionsPerPart"`
}

// Count returns the count for level, 0 when the level was omitted.
func (h Hierarchy) Count(level string) int {
	for _, l := range h.Levels {
		if l.Level == level {
			return l.Count
		}
	}
	return 0
}

// CountHierarchy counts structural items along the fixed eCFR nesting
// chapter > part > {section | subpart > {section | appendix} | appendix}.
//
// A reserved node adds nothing and its children are not visited, so a
// reserved chapter removes its whole subtree from every bucket. Nodes of an
// unexpected type at a level are ignored along with their children.
func CountHierarchy(root *ecfr.TitleNode) Hierarchy {
	var chapters, parts, sections, subparts, appendices int
	if root == nil {
		return Hierarchy{Levels: []LevelCount{}}
	}

	for _, chapter := range root.Children {
		if chapter.Type != ecfr.NodeChapter || chapter.Reserved {
			continue
		}
		chapters++
		for _, part := range chapter.Children {
			if part.Type != ecfr.NodePart || part.Reserved {
				continue
			}
			parts++
			for _, n := range part.Children {
				if n.Reserved {
					continue
				}
				switch n.Type {
				case ecfr.NodeSection:
					sections++
				case ecfr.NodeSubpart:
					subparts++
					for _, child := range n.Children {
						if child.Reserved {
							continue
						}
						switch child.Type {
						case ecfr.NodeSection:
							sections++
						case ecfr.NodeAppendix:
							appendices++
						}
					}
				case ecfr.NodeAppendix:
					appendices++
				}
			}
		}
	}

	h := Hierarchy{Levels: make([]LevelCount, 0, 5)}
	for _, lc := range []LevelCount{
		{LevelChapters, chapters},
		{LevelParts, parts},
		{LevelSections, sections},
		{LevelSubparts, subparts},
		{LevelAppendices, appendices},
	} {
		if lc.Count > 0 {
			h.Levels = append(h.Levels, lc)
			h.TotalItems += lc.Count
		}
	}
	h.Depth = len(h.Levels)
	if parts > 0 {
		h.SectionsPerPart = roundTo(float64(sections)/float64(parts), 1)
	}
	return h
}
