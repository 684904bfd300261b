package message

import (
	"strings"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		msg  Msg
		want []string
	}{
		{"user", Msg{Type: MsgTypeUser, Label: "#1", Content: "reset my password", Time: at}, []string{"09:30", "You #1:", "reset my password"}},
		{"assistant with footer", Msg{Type: MsgTypeAssistant, Content: "Step 1 - Open settings", Footer: "‹ 2/2 ›"}, []string{"LIA:", "Step 1 - Open settings", "‹ 2/2 ›"}},
		{"welcome", Msg{Type: MsgTypeWelcome, Content: "Hey"}, []string{"LIA:", "Hey"}},
		{"system", Msg{Type: MsgTypeSystem, Content: "stopped"}, []string{"·:", "stopped"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.msg, 80)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() = %q, missing %q", got, w)
				}
			}
		})
	}
}

func TestRenderWraps(t *testing.T) {
	got := Render(Msg{Type: MsgTypeAssistant, Content: strings.Repeat("word ", 20), Footer: "enter: more"}, 30)
	lines := strings.Split(got, "\n")
	if len(lines) < 3 {
		t.Fatalf("expected wrapped output, got %q", got)
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "     ") || !strings.Contains(last, "enter: more") {
		t.Errorf("footer line = %q, want it indented under the content", last)
	}
}
