// Package disclosure reveals answer text progressively: the text is cut
// into units, units are grouped into batches, and each unit is typed out
// rune by rune with a manual gate between batches.
package disclosure

import (
	"regexp"
	"strings"
)

// DefaultBatchSize is the number of units revealed before the gate.
const DefaultBatchSize = 3

var (
	stepMarker = regexp.MustCompile(`Step\s*\d+\s*[–-]`)
	enumerated = regexp.MustCompile(`\n\s*\d+\.\s`)
	listItem   = regexp.MustCompile(`^\s*-\s*`)
)

// Line is one line of a unit.
type Line struct {
	Raw string
	// Text is the line with any list marker removed.
	Text     string
	ListItem bool
}

// Unit is one step of an answer.
type Unit struct {
	Text  string
	Lines []Line
}

// Batch is a run of units revealed without a gate between them.
type Batch []Unit

// Segment splits text into disclosure units. It always returns at least
// one unit; text without step markers or enumerated items yields a single
// unit holding the text unchanged.
func Segment(text string) []Unit {
	pieces := splitSteps(text)
	if len(pieces) == 0 {
		pieces = splitEnumerated(text)
	}
	if len(pieces) == 0 {
		pieces = []string{text}
	}
	units := make([]Unit, len(pieces))
	for i, p := range pieces {
		units[i] = NewUnit(p)
	}
	return units
}

// NewUnit builds a unit for text, tagging list-item lines.
func NewUnit(text string) Unit {
	u := Unit{Text: text}
	for _, raw := range strings.Split(text, "\n") {
		l := Line{Raw: raw, Text: raw}
		if strings.HasPrefix(strings.TrimSpace(raw), "-") {
			l.ListItem = true
			l.Text = listItem.ReplaceAllString(raw, "")
		}
		u.Lines = append(u.Lines, l)
	}
	return u
}

func splitSteps(text string) []string {
	locs := stepMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var out []string
	// Text before the first marker, even on the marker's own line, is kept
	// as its own unit.
	if pre := strings.TrimSpace(text[:locs[0][0]]); pre != "" {
		out = append(out, pre)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		out = append(out, strings.TrimSpace(text[loc[0]:end]))
	}
	return out
}

func splitEnumerated(text string) []string {
	locs := enumerated.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	cuts := make([]int, 0, len(locs)+2)
	cuts = append(cuts, 0)
	for _, loc := range locs {
		cuts = append(cuts, loc[0])
	}
	cuts = append(cuts, len(text))

	var out []string
	for i := 0; i+1 < len(cuts); i++ {
		if p := strings.TrimSpace(text[cuts[i]:cuts[i+1]]); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Group splits units into batches of size, preserving order. The last
// batch may be short. A non-positive size means DefaultBatchSize.
func Group(units []Unit, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out []Batch
	for start := 0; start < len(units); start += size {
		end := min(start+size, len(units))
		out = append(out, Batch(units[start:end:end]))
	}
	return out
}
