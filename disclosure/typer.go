package disclosure

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Default typing speeds.
const (
	DefaultInterval      = 15 * time.Millisecond
	DefaultTrailingPause = 200 * time.Millisecond
)

var lastTyperID int64

func nextTyperID() int { return int(atomic.AddInt64(&lastTyperID, 1)) }

// TyperState is the lifecycle state of a Typer.
type TyperState int

const (
	TyperIdle TyperState = iota
	TyperTyping
	// TyperFinishing means every rune is out and the trailing pause runs.
	TyperFinishing
	TyperDone
	TyperCanceled
)

func (s TyperState) String() string {
	return [...]string{"idle", "typing", "finishing", "done", "canceled"}[s]
}

// TickMsg advances a Typer by one step.
type TickMsg struct {
	ID  int
	tag int
}

// Typer reveals a text one rune at a time.
type Typer struct {
	Interval      time.Duration
	TrailingPause time.Duration
	// OnCharacter is called with the revealed prefix after every rune.
	OnCharacter func(prefix string)

	id    int
	tag   int
	runes []rune
	pos   int
	state TyperState
}

// NewTyper returns an idle typer. A non-positive interval or a negative
// pause selects the default.
func NewTyper(interval, pause time.Duration) *Typer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if pause < 0 {
		pause = DefaultTrailingPause
	}
	return &Typer{Interval: interval, TrailingPause: pause, id: nextTyperID()}
}

// ID returns the typer's unique identifier.
func (t *Typer) ID() int { return t.id }

// State returns the current state.
func (t *Typer) State() TyperState { return t.state }

// Revealed returns the prefix emitted so far.
func (t *Typer) Revealed() string { return string(t.runes[:t.pos]) }

// Start begins revealing text, abandoning any run in progress.
func (t *Typer) Start(text string) tea.Cmd {
	t.tag++
	t.runes = []rune(text)
	t.pos = 0
	if len(t.runes) == 0 {
		t.state = TyperFinishing
		return t.tick(t.TrailingPause)
	}
	t.state = TyperTyping
	return t.tick(t.Interval)
}

// Cancel stops the typer. A canceled typer never reports completion.
func (t *Typer) Cancel() {
	if t.state == TyperDone || t.state == TyperCanceled {
		return
	}
	t.tag++
	t.state = TyperCanceled
}

// Update handles a tick. done is true exactly once per completed run.
func (t *Typer) Update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	m, ok := msg.(TickMsg)
	if !ok || m.ID != t.id || m.tag != t.tag {
		return nil, false
	}
	switch t.state {
	case TyperTyping:
		t.pos++
		if t.OnCharacter != nil {
			t.OnCharacter(t.Revealed())
		}
		if t.pos < len(t.runes) {
			return t.tick(t.Interval), false
		}
		t.state = TyperFinishing
		return t.tick(t.TrailingPause), false
	case TyperFinishing:
		t.state = TyperDone
		return nil, true
	}
	return nil, false
}

func (t *Typer) tick(d time.Duration) tea.Cmd {
	id, tag := t.id, t.tag
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{ID: id, tag: tag}
	})
}
