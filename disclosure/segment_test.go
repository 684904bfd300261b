package disclosure

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

var update = flag.Bool("update", false, "update golden files")

// TestSegmentGolden runs every testdata/segment/*.txtar archive. The
// archive comment is the answer text; the units file describes the
// expected units, one "p" or "li" tagged line per unit line.
func TestSegmentGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "segment", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no golden files")
	}
	for _, path := range files {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			ar := txtar.Parse(content)
			input := strings.TrimSuffix(string(ar.Comment), "\n")
			got := formatUnits(Segment(input))

			if *update {
				ar.Files = []txtar.File{{Name: "units", Data: []byte(got)}}
				if err := os.WriteFile(path, txtar.Format(ar), 0o644); err != nil {
					t.Fatal(err)
				}
				return
			}
			var want string
			for _, f := range ar.Files {
				if f.Name == "units" {
					want = string(f.Data)
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("units mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func formatUnits(units []Unit) string {
	var b strings.Builder
	for i, u := range units {
		if i > 0 {
			b.WriteString("====\n")
		}
		for _, l := range u.Lines {
			tag := "p "
			if l.ListItem {
				tag = "li"
			}
			fmt.Fprintln(&b, strings.TrimRight(tag+" "+l.Text, " "))
		}
	}
	return b.String()
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two steps",
			in:   "Step 1 - Do X\n- sub a\nStep 2 - Do Y",
			want: []string{"Step 1 - Do X\n- sub a", "Step 2 - Do Y"},
		},
		{
			name: "markers in the middle of a line",
			in:   "Intro: Step 1 - a. Step 2 – b.\nStep 3 - c",
			want: []string{"Intro:", "Step 1 - a.", "Step 2 – b.", "Step 3 - c"},
		},
		{
			name: "en dash and no spaces",
			in:   "Step1– first\nStep 2 –second",
			want: []string{"Step1– first", "Step 2 –second"},
		},
		{
			name: "surrounding whitespace is trimmed",
			in:   "\n\n  Step 1 - a  \n\n Step 2 - b\n\n",
			want: []string{"Step 1 - a", "Step 2 - b"},
		},
		{
			name: "enumerated items keep their numbers",
			in:   "Intro\n1. one\n 2. two",
			want: []string{"Intro", "1. one", "2. two"},
		},
		{
			name: "no pattern is a single untouched unit",
			in:   "  hello\nworld  ",
			want: []string{"  hello\nworld  "},
		},
		{
			name: "empty string",
			in:   "",
			want: []string{""},
		},
		{
			name: "step without number is not a marker",
			in:   "Step - one\nStep two - x",
			want: []string{"Step - one\nStep two - x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, u := range Segment(tt.in) {
				got = append(got, u.Text)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Segment(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

// Every non-blank line of the input must appear in some unit.
func TestSegmentKeepsEveryLine(t *testing.T) {
	inputs := []string{
		"Step 1 - Do X\n- sub a\nStep 2 - Do Y",
		"Preamble line\nStep 1 - a\n  - b\n\nStep 2 - c\ntrailing",
		"Steps:\n1. a\n2. b\n\n3. c\n- note",
		"one line",
		"a\n\n\nb\n  c",
		"Step 3 - out of order\nStep 1 - first\nStep 2 - x\nStep 4 - y",
	}
	for _, in := range inputs {
		seen := map[string]bool{}
		for _, u := range Segment(in) {
			for _, l := range u.Lines {
				seen[strings.TrimSpace(l.Raw)] = true
			}
		}
		for _, line := range strings.Split(in, "\n") {
			if line = strings.TrimSpace(line); line != "" && !seen[line] {
				t.Errorf("Segment(%q) dropped line %q", in, line)
			}
		}
	}
}

// Segmenting only trims whitespace; no other text is lost.
func TestSegmentKeepsEveryWord(t *testing.T) {
	inputs := []string{
		"Step 1 - Open the app. Step 2 - Sign in. Step 3 - Done.",
		"Do Step 1 - this inline\nthen more",
		"Intro\n1. one\n 2. two",
		"  plain  ",
	}
	for _, in := range inputs {
		var texts []string
		for _, u := range Segment(in) {
			texts = append(texts, u.Text)
		}
		if got, want := strings.Fields(strings.Join(texts, " ")), strings.Fields(in); !cmp.Equal(want, got) {
			t.Errorf("Segment(%q) words = %q, want %q", in, got, want)
		}
	}
}

func TestNewUnitListItems(t *testing.T) {
	u := NewUnit("Step 1 - Configure\n- first\n   -   second\nnot - a list")
	want := []Line{
		{Raw: "Step 1 - Configure", Text: "Step 1 - Configure"},
		{Raw: "- first", Text: "first", ListItem: true},
		{Raw: "   -   second", Text: "second", ListItem: true},
		{Raw: "not - a list", Text: "not - a list"},
	}
	if diff := cmp.Diff(want, u.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestGroup(t *testing.T) {
	units := func(n int) []Unit {
		var us []Unit
		for i := range n {
			us = append(us, NewUnit(fmt.Sprint(i)))
		}
		return us
	}
	tests := []struct {
		n, size int
		want    []int
	}{
		{n: 1, size: 3, want: []int{1}},
		{n: 2, size: 3, want: []int{2}},
		{n: 3, size: 3, want: []int{3}},
		{n: 7, size: 3, want: []int{3, 3, 1}},
		{n: 4, size: 1, want: []int{1, 1, 1, 1}},
		{n: 5, size: 0, want: []int{3, 2}},
		{n: 5, size: -2, want: []int{3, 2}},
		{n: 0, size: 3, want: nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.n, tt.size), func(t *testing.T) {
			batches := Group(units(tt.n), tt.size)
			var sizes []int
			next := 0
			for _, b := range batches {
				sizes = append(sizes, len(b))
				for _, u := range b {
					if u.Text != fmt.Sprint(next) {
						t.Errorf("unit %q out of order, want %d", u.Text, next)
					}
					next++
				}
			}
			if diff := cmp.Diff(tt.want, sizes); diff != "" {
				t.Errorf("batch sizes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
