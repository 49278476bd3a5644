package ecfr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	n := WordCount("Hello, world 123.")
	if n != 3 {
		t.Fatalf("unexpected word count: %d", n)
	}
}

func TestChecksumHex(t *testing.T) {
	sum := ChecksumHex("abc")
	if len(sum) != 64 {
		t.Fatalf("unexpected checksum length: %d", len(sum))
	}
}

func TestStructureChecksum(t *testing.T) {
	a := &TitleNode{Type: NodeTitle, Identifier: "1", Children: []TitleNode{
		{Type: NodeChapter, Identifier: "I", Children: []TitleNode{{Type: NodePart, Identifier: "1"}}},
	}}
	b := &TitleNode{Type: NodeTitle, Identifier: "1", Children: []TitleNode{
		{Type: NodeChapter, Identifier: "I", Children: []TitleNode{{Type: NodePart, Identifier: "1", Reserved: true}}},
	}}
	same := &TitleNode{Type: NodeTitle, Identifier: "1", LabelDescription: "ignored", Children: []TitleNode{
		{Type: NodeChapter, Identifier: "I", Children: []TitleNode{{Type: NodePart, Identifier: "1"}}},
	}}

	assert.Equal(t, StructureChecksum(a), StructureChecksum(same))
	assert.NotEqual(t, StructureChecksum(a), StructureChecksum(b))
	assert.Len(t, StructureChecksum(nil), 64)
}
