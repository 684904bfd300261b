package interactive

import "testing"

func TestBullets(t *testing.T) {
	tests := []struct {
		unit string
		want string
	}{
		{"Step 1 - Gather\n- accounts\n  -  documents", "Step 1 - Gather\n  • accounts\n  • documents"},
		{"no list here", "no list here"},
		{"-", "  • "},
	}
	for _, tt := range tests {
		if got := bullets(tt.unit); got != tt.want {
			t.Errorf("bullets(%q) = %q, want %q", tt.unit, got, tt.want)
		}
	}
}
