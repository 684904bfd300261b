// Package welcome plays the onboarding sequence shown before the first
// exchange: an attractor, then typing dots, then a typed greeting.
package welcome

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/render"
)

// DefaultMessage is the greeting typed at the end of the sequence.
const DefaultMessage = "Hey, It's LIA, your Intelligent Agent. Wondering how I can supercharge your business? Or maybe you just want to know more about me? Shoot your questions my way!"

// Default timings.
const (
	DefaultDelay    = 3 * time.Second
	DefaultDots     = 2 * time.Second
	DefaultInterval = 26 * time.Millisecond
)

// Phase is the stage of the welcome sequence.
type Phase int

const (
	Pending Phase = iota
	Attractor
	Dots
	Typing
	Done
	Canceled
)

func (p Phase) String() string {
	return [...]string{"pending", "attractor", "dots", "typing", "done", "canceled"}[p]
}

// Options configures a Sequence. Zero values select the defaults.
type Options struct {
	Message  string
	Delay    time.Duration
	Dots     time.Duration
	Interval time.Duration
}

var lastID int64

type phaseMsg struct {
	id    int
	phase Phase
}

// Sequence is the welcome state machine.
type Sequence struct {
	opts  Options
	r     render.Renderer
	id    int
	phase Phase
	typer *disclosure.Typer
	shown string
}

// New returns a pending sequence that reports typed text to r.
func New(r render.Renderer, opts Options) *Sequence {
	if opts.Message == "" {
		opts.Message = DefaultMessage
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Dots <= 0 {
		opts.Dots = DefaultDots
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if r == nil {
		r = render.Nop{}
	}
	s := &Sequence{
		opts:  opts,
		r:     r,
		id:    int(atomic.AddInt64(&lastID, 1)),
		typer: disclosure.NewTyper(opts.Interval, 0),
	}
	s.typer.OnCharacter = func(prefix string) {
		delta := prefix[len(s.shown):]
		s.shown = prefix
		s.r.AppendWelcomeText(delta)
	}
	return s
}

// Phase returns the current phase.
func (s *Sequence) Phase() Phase { return s.phase }

// Text returns the greeting typed so far.
func (s *Sequence) Text() string { return s.shown }

// Started reports whether the sequence has moved past the attractor. A
// started sequence can no longer be canceled.
func (s *Sequence) Started() bool { return s.phase >= Dots && s.phase != Canceled }

// Init shows the attractor and schedules the rest of the sequence.
func (s *Sequence) Init() tea.Cmd {
	if s.phase != Pending {
		return nil
	}
	s.phase = Attractor
	return s.after(s.opts.Delay, Dots)
}

// Update advances the sequence.
func (s *Sequence) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case phaseMsg:
		if msg.id != s.id || s.phase == Canceled {
			return nil
		}
		switch msg.phase {
		case Dots:
			s.phase = Dots
			return s.after(s.opts.Dots, Typing)
		case Typing:
			s.phase = Typing
			return s.typer.Start(s.opts.Message)
		}
	case disclosure.TickMsg:
		if s.phase != Typing {
			return nil
		}
		cmd, done := s.typer.Update(msg)
		if done {
			s.phase = Done
		}
		return cmd
	}
	return nil
}

// UserInput cancels the sequence if it has not started yet. Once the
// greeting is underway it plays to the end.
func (s *Sequence) UserInput() {
	if s.phase == Pending || s.phase == Attractor {
		s.phase = Canceled
	}
}

func (s *Sequence) after(d time.Duration, next Phase) tea.Cmd {
	id := s.id
	return tea.Tick(d, func(time.Time) tea.Msg {
		return phaseMsg{id: id, phase: next}
	})
}
