package ecfr

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type Title struct {
	Number          int    `json:"number"`
	Name            string `json:"name"`
	LatestAmendedOn string `json:"latest_amended_on"`
	LatestIssueDate string `json:"latest_issue_date"`
	UpToDateAsOf    string `json:"up_to_date_as_of"`
	Reserved        bool   `json:"reserved"`
}

type Agency struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Children      []Agency `json:"children"`
	CFRReferences []CFRRef `json:"cfr_references"`
	DisplayName   string   `json:"display_name"`
	ShortName     string   `json:"short_name"`
}

// DisplayLabel is the name an agency is charted under: short name, else full name.
func (a Agency) DisplayLabel() string {
	if a.ShortName != "" {
		return a.ShortName
	}
	return a.Name
}

// References reports whether the agency has a cfr_reference to title.
func (a Agency) References(title string) bool {
	for _, ref := range a.CFRReferences {
		if ref.Title.String() == title {
			return true
		}
	}
	return false
}

type CFRRef struct {
	Title    TitleRef `json:"title"`
	Chapter  string   `json:"chapter,omitempty"`  // e.g., "I"
	Subtitle string   `json:"subtitle,omitempty"` // some agencies reference subtitle
}

// TitleRef is a title number as referenced by an agency. The admin feed sends a
// JSON number but older payloads use strings; both compare as the decimal string.
type TitleRef string

func (r *TitleRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = TitleRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = TitleRef(n.String())
	return nil
}

func (r TitleRef) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(r)); err == nil {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(r))
}

func (r TitleRef) String() string { return string(r) }

// Structural node types in a full-title structure document.
const (
	NodeTitle    = "title"
	NodeChapter  = "chapter"
	NodePart     = "part"
	NodeSubpart  = "subpart"
	NodeSection  = "section"
	NodeAppendix = "appendix"
)

// TitleNode is one node of the structure tree returned by the versioner
// structure endpoint. The root is the title itself.
type TitleNode struct {
	Type             string      `json:"type"`
	Identifier       string      `json:"identifier"`
	Label            string      `json:"label,omitempty"`
	LabelDescription string      `json:"label_description,omitempty"`
	Reserved         bool        `json:"reserved"`
	Children         []TitleNode `json:"children,omitempty"`
}

// VersionRecord is one entry of a title's content_versions list.
type VersionRecord struct {
	Date          string `json:"date"`
	AmendmentDate string `json:"amendment_date"`
	IssueDate     string `json:"issue_date"`
	Identifier    string `json:"identifier"`
	Name          string `json:"name"`
	Part          string `json:"part"`
	Substantive   bool   `json:"substantive"`
	Removed       bool   `json:"removed"`
	Type          string `json:"type"`
}
