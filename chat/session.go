// Package chat coordinates a conversation: it turns user actions into
// turns, runs and supersedes generations, and handles edit and resend of
// past turns.
package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/generation"
	"github.com/tmc/stepchat/render"
	"github.com/tmc/stepchat/transcript"
	"github.com/tmc/stepchat/welcome"
)

// SettingsMsg replaces the disclosure settings of a running session.
type SettingsMsg disclosure.Settings

// Config configures a Session.
type Config struct {
	Service  answer.Service
	Renderer render.Renderer
	Logger   *zap.SugaredLogger
	Settings disclosure.Settings
	// Timeout bounds each answer request. Zero selects the default.
	Timeout time.Duration
	// Welcome configures the onboarding sequence; nil disables it.
	Welcome *welcome.Options
}

// Session is one conversation. Its methods must be called from the
// goroutine that runs the Bubble Tea update loop.
type Session struct {
	ID string

	ctx     context.Context
	store   *transcript.Store
	ctrl    *generation.Controller
	nav     *transcript.Navigator
	welcome *welcome.Sequence
	r       render.Renderer
	log     *zap.SugaredLogger

	pendingEdit transcript.TurnID
}

// New returns a session. ctx bounds every request the session makes.
func New(ctx context.Context, cfg Config) *Session {
	if cfg.Renderer == nil {
		cfg.Renderer = render.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Settings == (disclosure.Settings{}) {
		cfg.Settings = disclosure.DefaultSettings()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = generation.DefaultTimeout
	}
	id := uuid.NewString()
	log := cfg.Logger.With("session", id)

	s := &Session{
		ID:    id,
		ctx:   ctx,
		store: transcript.NewStore(),
		r:     cfg.Renderer,
		log:   log,
	}
	s.ctrl = generation.New(s.store, cfg.Service, cfg.Renderer,
		generation.WithSettings(cfg.Settings),
		generation.WithTimeout(cfg.Timeout),
		generation.WithLogger(log.Named("generation")),
	)
	s.nav = transcript.NewNavigator(s.store, s.ctrl.Busy)
	if cfg.Welcome != nil {
		s.welcome = welcome.New(cfg.Renderer, *cfg.Welcome)
	}
	return s
}

// Store returns the session's turn store.
func (s *Session) Store() *transcript.Store { return s.store }

// Controller returns the session's generation controller.
func (s *Session) Controller() *generation.Controller { return s.ctrl }

// Welcome returns the welcome sequence, or nil when disabled.
func (s *Session) Welcome() *welcome.Sequence { return s.welcome }

// Running reports whether any generation is active.
func (s *Session) Running() bool { return s.ctrl.Running() }

// Init starts the welcome sequence.
func (s *Session) Init() tea.Cmd {
	if s.welcome == nil {
		return nil
	}
	return s.welcome.Init()
}

// Update routes results, ticks and settings changes.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(SettingsMsg); ok {
		s.log.Infow("disclosure settings changed", "batchSize", m.BatchSize, "interval", m.Interval, "trailingPause", m.TrailingPause)
		s.ctrl.SetSettings(disclosure.Settings(m))
		return nil
	}
	cmd := s.ctrl.Update(msg)
	if s.welcome == nil {
		return cmd
	}
	return tea.Batch(cmd, s.welcome.Update(msg))
}

// Typing notes that the user typed into the input.
func (s *Session) Typing() {
	if s.welcome != nil {
		s.welcome.UserInput()
	}
}

// Send submits the input. With an edit pending it resends the edited
// turn; otherwise it creates a new turn. Active generations are settled
// first: pending requests are canceled and answers being typed are shown
// in full. Blank text without an attachment is ignored.
func (s *Session) Send(text string, att *answer.Attachment) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" && att == nil {
		return nil
	}
	s.Typing()
	if id, ok := s.PendingEdit(); ok {
		return s.resend(id, text, att)
	}

	s.ctrl.SettleAll()
	id := s.store.Create(text, att)
	turn, _ := s.store.Turn(id)
	s.log.Debugw("turn created", "turn", id, "image", att != nil)
	_, cmd := s.ctrl.Start(s.ctx, id, turn.Request())
	return cmd
}

// Edit begins editing a turn and returns its text for the input. Editing
// an unknown or hidden turn fails and clears any pending edit.
func (s *Session) Edit(id transcript.TurnID) (string, bool) {
	t, ok := s.store.Turn(id)
	if !ok || !t.Visible {
		s.pendingEdit = 0
		return "", false
	}
	s.pendingEdit = id
	return t.UserText, true
}

// PendingEdit returns the turn being edited.
func (s *Session) PendingEdit() (transcript.TurnID, bool) {
	return s.pendingEdit, s.pendingEdit != 0
}

// CancelEdit drops the pending edit.
func (s *Session) CancelEdit() { s.pendingEdit = 0 }

// Resend replaces the user text of a turn, hides every later turn and
// starts a new generation whose answer becomes a new version of the turn.
// An unknown or hidden turn is ignored.
func (s *Session) Resend(id transcript.TurnID, text string) tea.Cmd {
	return s.resend(id, strings.TrimSpace(text), nil)
}

func (s *Session) resend(id transcript.TurnID, text string, att *answer.Attachment) tea.Cmd {
	s.pendingEdit = 0
	t, ok := s.store.Turn(id)
	if !ok || !t.Visible {
		s.log.Debugw("ignoring resend of unavailable turn", "turn", id)
		return nil
	}
	if att == nil {
		att = t.Attachment
	}
	if text == "" && att == nil {
		return nil
	}
	if err := s.store.SetAttachment(id, att); err != nil {
		s.log.Warnw("cannot update turn", "turn", id, "error", err)
		return nil
	}

	hidden, err := s.store.HideAfter(id)
	if err != nil {
		s.log.Warnw("cannot hide later turns", "turn", id, "error", err)
		return nil
	}
	for _, h := range hidden {
		s.ctrl.CancelTurn(h)
		s.r.HideTurn(h)
	}
	s.ctrl.CancelTurn(id)
	if err := s.store.SetUserText(id, text); err != nil {
		s.log.Warnw("cannot update turn", "turn", id, "error", err)
		return nil
	}
	s.r.ClearAnswer(id)
	s.log.Debugw("resending turn", "turn", id, "hidden", len(hidden))

	_, cmd := s.ctrl.Start(s.ctx, id, answer.Request{Query: text, Attachment: att})
	return cmd
}

// Stop ends every active generation. Pending requests are canceled and
// answers being typed are shown in full, so no answer is left half shown.
func (s *Session) Stop() {
	if s.ctrl.Running() {
		s.log.Debugw("stopping generations")
	}
	s.ctrl.SettleAll()
}

// Advance moves the newest disclosure waiting at a gate to its next batch.
func (s *Session) Advance() tea.Cmd {
	id, ok := s.ctrl.Waiting()
	if !ok {
		return nil
	}
	return s.ctrl.Advance(id)
}

// Navigate selects the previous or next answer version of a turn.
func (s *Session) Navigate(id transcript.TurnID, dir transcript.Direction) (int, bool) {
	return s.nav.Navigate(id, dir)
}

// Position returns the 1-based selected version and the version count of
// a turn.
func (s *Session) Position(id transcript.TurnID) (int, int) {
	return s.nav.Position(id)
}
