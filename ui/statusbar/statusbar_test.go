package statusbar

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		data    StatusData
		want    []string
		notWant []string
	}{
		{
			name:    "insert",
			data:    StatusData{Mode: "INSERT", Backend: "http"},
			want:    []string{"INSERT", "http"},
			notWant: []string{"generating"},
		},
		{
			name: "editing with an image while generating",
			data: StatusData{Mode: "EDIT #2", Backend: "dummy/dummy", Attachment: "shot.png", Generating: true},
			want: []string{"EDIT #2", "shot.png", "generating · dummy/dummy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(60, tt.data)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Render() = %q, unexpected %q", got, w)
				}
			}
			if w := lipgloss.Width(got); w != 60 {
				t.Errorf("width = %d, want 60", w)
			}
		})
	}
	if got := Render(0, StatusData{Mode: "INSERT"}); got != "" {
		t.Errorf("zero width rendered %q", got)
	}
}
