package welcome

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmc/stepchat/render"
)

var fast = Options{Message: "Hi ✓", Delay: time.Microsecond, Dots: time.Microsecond, Interval: time.Microsecond}

func TestSequencePlays(t *testing.T) {
	rec := render.NewRecorder()
	s := New(rec, fast)
	if s.Phase() != Pending {
		t.Fatalf("phase = %v", s.Phase())
	}

	cmd := s.Init()
	if s.Phase() != Attractor || s.Started() {
		t.Fatalf("after Init: phase = %v, started = %v", s.Phase(), s.Started())
	}
	var phases []Phase
	for cmd != nil {
		cmd = s.Update(cmd())
		if n := len(phases); n == 0 || phases[n-1] != s.Phase() {
			phases = append(phases, s.Phase())
		}
	}

	want := []Phase{Dots, Typing, Done}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phases = %v, want %v", phases, want)
		}
	}
	if rec.Welcome() != "Hi ✓" || s.Text() != "Hi ✓" {
		t.Errorf("typed %q / %q", rec.Welcome(), s.Text())
	}
}

func TestUserInputBeforeStartCancels(t *testing.T) {
	rec := render.NewRecorder()
	s := New(rec, fast)
	cmd := s.Init()
	s.UserInput()

	if s.Phase() != Canceled {
		t.Fatalf("phase = %v, want canceled", s.Phase())
	}
	if next := s.Update(cmd()); next != nil {
		t.Error("canceled sequence scheduled more work")
	}
	if rec.Welcome() != "" {
		t.Errorf("canceled sequence typed %q", rec.Welcome())
	}
}

func TestUserInputAfterStartIsIgnored(t *testing.T) {
	rec := render.NewRecorder()
	s := New(rec, fast)
	cmd := s.Update(s.Init()())
	if !s.Started() {
		t.Fatalf("phase = %v, want started", s.Phase())
	}
	s.UserInput()
	for cmd != nil {
		cmd = s.Update(cmd())
	}
	if s.Phase() != Done || rec.Welcome() != fast.Message {
		t.Errorf("phase = %v, welcome = %q", s.Phase(), rec.Welcome())
	}
}

func TestSequenceIgnoresForeignMessages(t *testing.T) {
	a := New(nil, fast)
	b := New(nil, fast)
	msg := a.Init()()
	b.Init()
	if cmd := b.Update(msg); cmd != nil || b.Phase() != Attractor {
		t.Errorf("b advanced on a's message: phase %v", b.Phase())
	}
	if cmd := b.Update(tea.KeyMsg{}); cmd != nil {
		t.Error("unrelated message produced a command")
	}
	if cmd := a.Init(); cmd != nil {
		t.Error("second Init produced a command")
	}
}

func TestDefaults(t *testing.T) {
	s := New(nil, Options{})
	if s.opts.Message != DefaultMessage || s.opts.Delay != DefaultDelay || s.opts.Dots != DefaultDots || s.opts.Interval != DefaultInterval {
		t.Errorf("opts = %+v", s.opts)
	}
}
