// Package render defines the instructions the turn engine issues to the
// presentation layer.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/stepchat/transcript"
)

// Renderer receives presentation instructions. All methods are called from
// the goroutine that drives the session and must not block.
type Renderer interface {
	// AppendUnitText appends revealed text to a unit of a turn's answer.
	AppendUnitText(turn transcript.TurnID, unit int, delta string)
	// ShowAdvance shows or hides the manual advance affordance of a turn.
	ShowAdvance(turn transcript.TurnID, show bool)
	// ShowStop toggles between the stop and the send affordance.
	ShowStop(show bool)
	// ClearAnswer discards the revealed answer of a turn before a new
	// disclosure starts for it.
	ClearAnswer(turn transcript.TurnID)
	// HideTurn removes a turn from the visible transcript.
	HideTurn(turn transcript.TurnID)
	// AppendWelcomeText appends typed text to the welcome message.
	AppendWelcomeText(delta string)
}

// Nop discards every instruction.
type Nop struct{}

func (Nop) AppendUnitText(transcript.TurnID, int, string) {}
func (Nop) ShowAdvance(transcript.TurnID, bool)           {}
func (Nop) ShowStop(bool)                                 {}
func (Nop) ClearAnswer(transcript.TurnID)                 {}
func (Nop) HideTurn(transcript.TurnID)                    {}
func (Nop) AppendWelcomeText(string)                      {}

// Recorder records instructions for inspection.
type Recorder struct {
	mu      sync.Mutex
	text    map[transcript.TurnID]map[int]string
	advance map[transcript.TurnID]bool
	hidden  map[transcript.TurnID]bool
	stop    []bool
	welcome strings.Builder
	log     []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		text:    make(map[transcript.TurnID]map[int]string),
		advance: make(map[transcript.TurnID]bool),
		hidden:  make(map[transcript.TurnID]bool),
	}
}

func (r *Recorder) AppendUnitText(turn transcript.TurnID, unit int, delta string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.text[turn] == nil {
		r.text[turn] = make(map[int]string)
	}
	r.text[turn][unit] += delta
}

func (r *Recorder) ShowAdvance(turn transcript.TurnID, show bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance[turn] = show
	r.log = append(r.log, fmt.Sprintf("advance %v %t", turn, show))
}

func (r *Recorder) ShowStop(show bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop = append(r.stop, show)
	r.log = append(r.log, fmt.Sprintf("stop %t", show))
}

func (r *Recorder) HideTurn(turn transcript.TurnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden[turn] = true
	r.log = append(r.log, fmt.Sprintf("hide %v", turn))
}

func (r *Recorder) AppendWelcomeText(delta string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.welcome.WriteString(delta)
}

// Units returns the text revealed for each unit of a turn, in unit order.
func (r *Recorder) Units(turn transcript.TurnID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	units := r.text[turn]
	out := make([]string, len(units))
	for i := range out {
		out[i] = units[i]
	}
	return out
}

func (r *Recorder) ClearAnswer(turn transcript.TurnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.text, turn)
	r.log = append(r.log, fmt.Sprintf("clear %v", turn))
}

// Advance reports whether the advance affordance of a turn is shown.
func (r *Recorder) Advance(turn transcript.TurnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advance[turn]
}

// Hidden reports whether the turn was hidden.
func (r *Recorder) Hidden(turn transcript.TurnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hidden[turn]
}

// Stop returns every ShowStop argument in call order.
func (r *Recorder) Stop() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.stop...)
}

// Welcome returns the welcome text typed so far.
func (r *Recorder) Welcome() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.welcome.String()
}

// Log returns the affordance instructions in call order.
func (r *Recorder) Log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}
