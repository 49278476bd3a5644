package ecfr

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// WordCount counts runs of letters and digits in s.
func WordCount(s string) int {
	inWord := false
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !inWord {
				n++
				inWord = true
			}
		} else {
			inWord = false
		}
	}
	return n
}

// ChecksumHex returns a SHA-256 checksum as hex.
func ChecksumHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// StructureChecksum fingerprints the shape of a structure tree: the type,
// identifier and reserved flag of every node in document order. Two dates
// with the same checksum have the same hierarchy.
func StructureChecksum(root *TitleNode) string {
	if root == nil {
		return ChecksumHex("")
	}
	var b strings.Builder
	var walk func(n *TitleNode, depth int)
	walk = func(n *TitleNode, depth int) {
		b.WriteString(strings.Repeat(" ", depth))
		b.WriteString(n.Type)
		b.WriteByte(':')
		b.WriteString(n.Identifier)
		if n.Reserved {
			b.WriteString(":r")
		}
		b.WriteByte('\n')
		for i := range n.Children {
			walk(&n.Children[i], depth+1)
		}
	}
	walk(root, 0)
	return ChecksumHex(b.String())
}
