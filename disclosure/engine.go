package disclosure

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Settings controls the pace and grouping of a disclosure.
type Settings struct {
	BatchSize     int
	Interval      time.Duration
	TrailingPause time.Duration
}

// DefaultSettings returns the stock disclosure settings.
func DefaultSettings() Settings {
	return Settings{
		BatchSize:     DefaultBatchSize,
		Interval:      DefaultInterval,
		TrailingPause: DefaultTrailingPause,
	}
}

// State is the state of an Engine.
type State int

const (
	Idle State = iota
	RevealingUnit
	AwaitingAdvance
	Done
	Canceled
)

func (s State) String() string {
	return [...]string{"idle", "revealing", "awaiting-advance", "done", "canceled"}[s]
}

// Engine sequences typer runs over the batches of one answer.
type Engine struct {
	// OnText receives each newly revealed fragment of a unit. unit is the
	// unit's index across the whole answer.
	OnText func(unit int, delta string)
	// OnGate is called with true when the engine starts waiting for
	// Advance and with false when it stops waiting.
	OnGate func(waiting bool)

	settings Settings
	typer    *Typer
	batches  []Batch
	batch    int // index into batches
	unit     int // index into batches[batch]
	offset   int // units in batches before batch
	revealed []string
	state    State
}

// NewEngine returns an idle engine.
func NewEngine(s Settings) *Engine {
	e := &Engine{settings: s}
	e.typer = NewTyper(s.Interval, s.TrailingPause)
	e.typer.OnCharacter = e.onCharacter
	return e
}

// State returns the engine state.
func (e *Engine) State() State { return e.state }

// Batches returns the batches of the current disclosure.
func (e *Engine) Batches() []Batch { return e.batches }

// Revealed returns the text revealed so far for each started unit.
func (e *Engine) Revealed() []string { return append([]string(nil), e.revealed...) }

// Start segments text from scratch and starts revealing the first unit.
// Any disclosure in progress is abandoned.
func (e *Engine) Start(text string) tea.Cmd {
	e.typer.Cancel()
	if e.state == AwaitingAdvance {
		e.gate(false)
	}
	e.batches = Group(Segment(text), e.settings.BatchSize)
	e.batch, e.unit, e.offset = 0, 0, 0
	e.revealed = nil
	return e.startUnit()
}

// Update routes typer ticks. done is true once, when the last unit of the
// last batch has been revealed.
func (e *Engine) Update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	if e.state != RevealingUnit {
		return nil, false
	}
	cmd, finished := e.typer.Update(msg)
	if !finished {
		return cmd, false
	}
	if e.unit+1 < len(e.batches[e.batch]) {
		e.unit++
		return e.startUnit(), false
	}
	if e.batch+1 < len(e.batches) {
		e.state = AwaitingAdvance
		e.gate(true)
		return nil, false
	}
	e.state = Done
	return nil, true
}

// Advance moves past the gate to the next batch. It is a no-op unless the
// engine is awaiting advance.
func (e *Engine) Advance() tea.Cmd {
	if e.state != AwaitingAdvance {
		return nil
	}
	e.gate(false)
	e.offset += len(e.batches[e.batch])
	e.batch++
	e.unit = 0
	return e.startUnit()
}

// Cancel stops the disclosure. A canceled engine never reports done.
func (e *Engine) Cancel() {
	switch e.state {
	case Done, Canceled:
		return
	case AwaitingAdvance:
		e.gate(false)
	}
	e.typer.Cancel()
	e.state = Canceled
}

// Finish stops typing and reveals the rest of every unit at once through
// OnText. The engine ends in Done but, like Cancel, never reports done
// from Update. It is a no-op unless a disclosure is in progress.
func (e *Engine) Finish() {
	switch e.state {
	case Idle, Done, Canceled:
		return
	case AwaitingAdvance:
		e.gate(false)
	}
	e.typer.Cancel()
	e.state = Done
	i := 0
	for _, b := range e.batches {
		for _, u := range b {
			if i == len(e.revealed) {
				e.revealed = append(e.revealed, "")
			}
			if rest := u.Text[len(e.revealed[i]):]; rest != "" {
				e.revealed[i] = u.Text
				if e.OnText != nil {
					e.OnText(i, rest)
				}
			}
			i++
		}
	}
}

func (e *Engine) startUnit() tea.Cmd {
	e.state = RevealingUnit
	e.revealed = append(e.revealed, "")
	return e.typer.Start(e.batches[e.batch][e.unit].Text)
}

func (e *Engine) onCharacter(prefix string) {
	i := e.offset + e.unit
	delta := prefix[len(e.revealed[i]):]
	e.revealed[i] = prefix
	if e.OnText != nil {
		e.OnText(i, delta)
	}
}

func (e *Engine) gate(waiting bool) {
	if e.OnGate != nil {
		e.OnGate(waiting)
	}
}
