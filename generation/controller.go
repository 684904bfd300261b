// Package generation runs answer requests for turns and drives the
// disclosure of their results.
package generation

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/render"
	"github.com/tmc/stepchat/transcript"
)

// DefaultTimeout bounds a single answer request.
const DefaultTimeout = 2 * time.Minute

// ResultMsg carries the outcome of an answer request back to the update
// loop.
type ResultMsg struct {
	Handle int
	Turn   transcript.TurnID
	Text   string
	Err    error
}

// Handle is one generation run for a turn.
type Handle struct {
	ID   int
	Turn transcript.TurnID

	canceled  bool
	committed bool
	failed    bool
	cancel    context.CancelFunc
	engine    *disclosure.Engine
}

// Canceled reports whether the run was canceled.
func (h *Handle) Canceled() bool { return h.canceled }

// Committed reports whether the run's answer was recorded as a version.
func (h *Handle) Committed() bool { return h.committed }

// Engine returns the disclosure engine revealing the run's answer.
func (h *Handle) Engine() *disclosure.Engine { return h.engine }

// Controller owns the generation handles of a session. It is not safe for
// concurrent use; all calls happen on the update goroutine.
type Controller struct {
	store    *transcript.Store
	svc      answer.Service
	r        render.Renderer
	log      *zap.SugaredLogger
	settings disclosure.Settings
	timeout  time.Duration

	lastID int
	active map[transcript.TurnID]*Handle
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithSettings sets the disclosure settings used for new runs.
func WithSettings(s disclosure.Settings) Option {
	return func(c *Controller) { c.settings = s }
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) { c.log = log }
}

// New returns a controller that records answers in store, fetches them
// from svc and reports progress to r.
func New(store *transcript.Store, svc answer.Service, r render.Renderer, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		svc:      svc,
		r:        r,
		log:      zap.NewNop().Sugar(),
		settings: disclosure.DefaultSettings(),
		timeout:  DefaultTimeout,
		active:   make(map[transcript.TurnID]*Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.r == nil {
		c.r = render.Nop{}
	}
	return c
}

// SetSettings changes the disclosure settings for runs started from now on.
func (c *Controller) SetSettings(s disclosure.Settings) { c.settings = s }

// Settings returns the current disclosure settings.
func (c *Controller) Settings() disclosure.Settings { return c.settings }

// Start begins a run for the turn, superseding any active run for it. The
// returned command performs the request.
func (c *Controller) Start(ctx context.Context, turn transcript.TurnID, req answer.Request) (*Handle, tea.Cmd) {
	if prev, ok := c.active[turn]; ok {
		c.log.Debugw("superseding generation", "turn", turn, "handle", prev.ID)
		c.Cancel(prev)
	}
	if err := c.store.SetState(turn, transcript.StateRunning); err != nil {
		c.log.Warnw("cannot start generation", "turn", turn, "error", err)
		return nil, nil
	}

	c.lastID++
	h := &Handle{ID: c.lastID, Turn: turn}
	h.engine = disclosure.NewEngine(c.settings)
	h.engine.OnText = func(unit int, delta string) { c.r.AppendUnitText(turn, unit, delta) }
	h.engine.OnGate = func(waiting bool) { c.r.ShowAdvance(turn, waiting) }

	var reqCtx context.Context
	if c.timeout > 0 {
		reqCtx, h.cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		reqCtx, h.cancel = context.WithCancel(ctx)
	}
	c.active[turn] = h
	c.r.ShowStop(true)
	c.log.Debugw("generation started", "turn", turn, "handle", h.ID, "image", req.HasImage())

	svc, id, cancel := c.svc, h.ID, h.cancel
	return h, func() tea.Msg {
		defer cancel()
		text, err := svc.Answer(reqCtx, req)
		return ResultMsg{Handle: id, Turn: turn, Text: text, Err: err}
	}
}

// Update handles results and typer ticks.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ResultMsg:
		return c.handleResult(msg)
	case disclosure.TickMsg:
		var cmds []tea.Cmd
		for _, h := range c.active {
			cmd, done := h.engine.Update(msg)
			if done {
				c.finish(h)
			}
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return tea.Batch(cmds...)
	}
	return nil
}

func (c *Controller) handleResult(msg ResultMsg) tea.Cmd {
	h, ok := c.active[msg.Turn]
	if !ok || h.ID != msg.Handle || h.canceled {
		c.log.Debugw("discarding stale result", "turn", msg.Turn, "handle", msg.Handle)
		return nil
	}
	if answer.IsCanceled(msg.Err) {
		c.release(h, transcript.StateIdle)
		return nil
	}
	if msg.Err != nil {
		c.log.Warnw("answer request failed", "turn", msg.Turn, "error", msg.Err)
	}
	text, failed := answer.Fallback(msg.Text, msg.Err)
	if _, err := c.store.AppendVersion(msg.Turn, text, failed); err != nil {
		c.log.Warnw("cannot record answer", "turn", msg.Turn, "error", err)
		c.release(h, transcript.StateIdle)
		return nil
	}
	h.committed, h.failed = true, failed
	return h.engine.Start(text)
}

func (c *Controller) finish(h *Handle) {
	state := transcript.StateIdle
	if h.failed {
		state = transcript.StateFailed
	}
	c.log.Debugw("generation finished", "turn", h.Turn, "handle", h.ID, "state", state)
	c.release(h, state)
}

func (c *Controller) release(h *Handle, state transcript.GenerationState) {
	delete(c.active, h.Turn)
	if err := c.store.SetState(h.Turn, state); err != nil {
		c.log.Warnw("cannot update turn state", "turn", h.Turn, "error", err)
	}
	if len(c.active) == 0 {
		c.r.ShowStop(false)
	}
}

// Cancel stops a run. A run canceled before its answer arrived leaves the
// turn idle without a new version; one canceled during disclosure leaves
// the turn canceled with the version kept.
func (c *Controller) Cancel(h *Handle) {
	if h == nil || h.canceled || c.active[h.Turn] != h {
		return
	}
	h.canceled = true
	h.cancel()
	h.engine.Cancel()
	state := transcript.StateIdle
	if h.committed {
		state = transcript.StateCanceled
	}
	c.log.Debugw("generation canceled", "turn", h.Turn, "handle", h.ID, "state", state)
	c.release(h, state)
}

// Settle ends a run without losing its answer. A run still waiting for its
// answer is canceled as with Cancel. A run disclosing its answer reveals
// the rest at once and leaves the turn idle, or failed for a synthetic
// error answer.
func (c *Controller) Settle(h *Handle) {
	if h == nil || h.canceled || c.active[h.Turn] != h {
		return
	}
	if !h.committed {
		c.Cancel(h)
		return
	}
	h.cancel()
	h.engine.Finish()
	c.log.Debugw("generation settled", "turn", h.Turn, "handle", h.ID)
	c.finish(h)
}

// SettleAll settles every active run.
func (c *Controller) SettleAll() {
	for _, h := range c.active {
		c.Settle(h)
	}
}

// CancelTurn cancels the active run of a turn, if any.
func (c *Controller) CancelTurn(turn transcript.TurnID) bool {
	h, ok := c.active[turn]
	if ok {
		c.Cancel(h)
	}
	return ok
}

// CancelAll cancels every active run.
func (c *Controller) CancelAll() {
	for _, h := range c.active {
		c.Cancel(h)
	}
}

// Active returns the active run of a turn.
func (c *Controller) Active(turn transcript.TurnID) (*Handle, bool) {
	h, ok := c.active[turn]
	return h, ok
}

// Running reports whether any run is active.
func (c *Controller) Running() bool { return len(c.active) > 0 }

// Busy reports whether the turn has an active run.
func (c *Controller) Busy(turn transcript.TurnID) bool {
	_, ok := c.active[turn]
	return ok
}

// Pending reports whether the turn's run is still waiting for its answer.
func (c *Controller) Pending(turn transcript.TurnID) bool {
	h, ok := c.active[turn]
	return ok && !h.committed
}

// Waiting returns the newest turn whose disclosure waits at a gate.
func (c *Controller) Waiting() (transcript.TurnID, bool) {
	var (
		newest transcript.TurnID
		found  bool
	)
	for id, h := range c.active {
		if h.engine.State() == disclosure.AwaitingAdvance && id >= newest {
			newest, found = id, true
		}
	}
	return newest, found
}

// Advance moves the turn's disclosure past its gate.
func (c *Controller) Advance(turn transcript.TurnID) tea.Cmd {
	h, ok := c.active[turn]
	if !ok {
		return nil
	}
	return h.engine.Advance()
}
