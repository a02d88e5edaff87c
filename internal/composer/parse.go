package composer

import (
	"regexp"
	"strings"
)

// Section labels understood by the parser.
const (
	LabelTitle          = "TITLE"
	LabelExcerpt        = "EXCERPT"
	LabelSEOTitle       = "SEO_TITLE"
	LabelSEODescription = "SEO_DESCRIPTION"
	LabelContent        = "CONTENT"
)

var markerRe = regexp.MustCompile(`(?i)---([a-z_]+)---`)

// Section is one labeled block of generated text.
// Present is false when the marker never appeared; a marker followed by
// nothing yields Present with empty Text.
type Section struct {
	Text    string
	Present bool
}

// Empty reports whether the section carries no usable text.
func (s Section) Empty() bool { return s.Text == "" }

// Sections is the structured result of Parse.
type Sections struct {
	Title          Section
	Excerpt        Section
	SEOTitle       Section
	SEODescription Section
	Content        Section
}

// Missing lists the labels without usable text, in output-format order.
func (s Sections) Missing() []string {
	var missing []string
	for _, item := range []struct {
		label string
		sec   Section
	}{
		{LabelTitle, s.Title},
		{LabelExcerpt, s.Excerpt},
		{LabelSEOTitle, s.SEOTitle},
		{LabelSEODescription, s.SEODescription},
		{LabelContent, s.Content},
	} {
		if item.sec.Empty() {
			missing = append(missing, item.label)
		}
	}
	return missing
}

// Parse splits generated text on ---LABEL--- markers. Markers match
// case-insensitively, each block runs until the next marker or the end of
// input, and only the first block per label counts.
func Parse(text string) Sections {
	blocks := map[string]Section{}
	matches := markerRe.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		label := strings.ToUpper(text[m[2]:m[3]])
		if _, seen := blocks[label]; seen {
			continue
		}
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		blocks[label] = Section{Text: strings.TrimSpace(text[m[1]:end]), Present: true}
	}

	return Sections{
		Title:          blocks[LabelTitle],
		Excerpt:        blocks[LabelExcerpt],
		SEOTitle:       blocks[LabelSEOTitle],
		SEODescription: blocks[LabelSEODescription],
		Content:        blocks[LabelContent],
	}
}
