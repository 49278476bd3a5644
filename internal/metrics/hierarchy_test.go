package metrics

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"ecfr-dashboard/internal/ecfr"
)

func node(typ, id string, children ...ecfr.TitleNode) ecfr.TitleNode {
	return ecfr.TitleNode{Type: typ, Identifier: id, Children: children}
}

func reserved(n ecfr.TitleNode) ecfr.TitleNode {
	n.Reserved = true
	return n
}

func sampleTitle() *ecfr.TitleNode {
	root := node(ecfr.NodeTitle, "1",
		node(ecfr.NodeChapter, "I",
			node(ecfr.NodePart, "1",
				node(ecfr.NodeSection, "1.1"),
				node(ecfr.NodeSection, "1.2"),
				reserved(node(ecfr.NodeSection, "1.3")),
			),
			node(ecfr.NodePart, "2",
				node(ecfr.NodeSubpart, "A",
					node(ecfr.NodeSection, "2.1"),
					node(ecfr.NodeAppendix, "Appendix A to Subpart A"),
				),
				node(ecfr.NodeAppendix, "Appendix A to Part 2"),
			),
		),
		node(ecfr.NodeChapter, "II",
			node(ecfr.NodePart, "100",
				node(ecfr.NodeSection, "100.1"),
			),
		),
	)
	return &root
}

func TestCountHierarchy(t *testing.T) {
	h := CountHierarchy(sampleTitle())

	want := []LevelCount{
		{LevelChapters, 2},
		{LevelParts, 3},
		{LevelSections, 4},
		{LevelSubparts, 1},
		{LevelAppendices, 2},
	}
	if diff := cmp.Diff(want, h.Levels); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 12, h.TotalItems)
	assert.Equal(t, 5, h.Depth)
	assert.Equal(t, 1.3, h.SectionsPerPart)
}

func TestCountHierarchyReservedChapterSkipsSubtree(t *testing.T) {
	root := node(ecfr.NodeTitle, "1",
		reserved(node(ecfr.NodeChapter, "I",
			node(ecfr.NodePart, "1",
				node(ecfr.NodeSection, "1.1"),
				node(ecfr.NodeSubpart, "A", node(ecfr.NodeSection, "1.2")),
			),
		)),
		node(ecfr.NodeChapter, "II"),
	)

	h := CountHierarchy(&root)
	assert.Equal(t, []LevelCount{{LevelChapters, 1}}, h.Levels)
	assert.Equal(t, 1, h.TotalItems)
	assert.Equal(t, 1, h.Depth)
	assert.Zero(t, h.SectionsPerPart)
}

func TestCountHierarchyReservedSubpartSkipsItsSections(t *testing.T) {
	root := node(ecfr.NodeTitle, "1",
		node(ecfr.NodeChapter, "I",
			node(ecfr.NodePart, "1",
				reserved(node(ecfr.NodeSubpart, "A", node(ecfr.NodeSection, "1.1"))),
				node(ecfr.NodeSubpart, "B",
					node(ecfr.NodeSection, "1.2"),
					reserved(node(ecfr.NodeSection, "1.3")),
					reserved(node(ecfr.NodeAppendix, "Appendix")),
				),
			),
		),
	)

	h := CountHierarchy(&root)
	assert.Equal(t, 1, h.Count(LevelSections))
	assert.Equal(t, 1, h.Count(LevelSubparts))
	assert.Zero(t, h.Count(LevelAppendices))
}

func TestCountHierarchyFixedNesting(t *testing.T) {
	// A part directly under the title, or a section under a chapter, is
	// outside the nesting the counter walks.
	root := node(ecfr.NodeTitle, "1",
		node(ecfr.NodePart, "1", node(ecfr.NodeSection, "1.1")),
		node(ecfr.NodeChapter, "I",
			node(ecfr.NodeSection, "5.1"),
			node("subchapter", "A", node(ecfr.NodePart, "9")),
		),
	)

	h := CountHierarchy(&root)
	assert.Equal(t, []LevelCount{{LevelChapters, 1}}, h.Levels)
}

func TestCountHierarchyEmpty(t *testing.T) {
	for name, root := range map[string]*ecfr.TitleNode{
		"nil":         nil,
		"no children": {Type: ecfr.NodeTitle, Identifier: "1"},
	} {
		t.Run(name, func(t *testing.T) {
			h := CountHierarchy(root)
			assert.Empty(t, h.Levels)
			assert.Zero(t, h.TotalItems)
			assert.Zero(t, h.Depth)
			assert.Zero(t, h.SectionsPerPart)
		})
	}
}
