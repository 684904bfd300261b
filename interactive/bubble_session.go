package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/chat"
	"github.com/tmc/stepchat/transcript"
	"github.com/tmc/stepchat/ui/help"
	"github.com/tmc/stepchat/ui/history"
	"github.com/tmc/stepchat/ui/keymap"
	"github.com/tmc/stepchat/ui/statusbar"
	"github.com/tmc/stepchat/welcome"
)

var _ Session = (*BubbleSession)(nil)

type editorMode int

const (
	modeInsert  editorMode = iota // Normal text editing
	modeCommand                   // Command mode (after Escape)
)

const doublePressDuration = time.Second

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// BubbleSession is the full-screen interface.
type BubbleSession struct {
	cfg Config
	log *zap.SugaredLogger

	mu      sync.Mutex
	program *tea.Program
}

// NewBubbleSession creates a new Bubble Tea based session.
func NewBubbleSession(cfg Config) *BubbleSession {
	return &BubbleSession{cfg: cfg, log: cfg.logger().Named("tui")}
}

// Run starts the Bubble Tea application loop.
func (s *BubbleSession) Run(ctx context.Context) error {
	hist := history.New(nil)
	if s.cfg.HistoryFile != "" {
		h, err := history.Load(s.cfg.HistoryFile)
		if err != nil {
			s.log.Warnw("failed to load history", "error", err)
		} else {
			hist = h
		}
	}
	m := newBubbleModel(ctx, s.cfg, hist)

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if s.cfg.Stdin != nil {
		opts = append(opts, tea.WithInput(s.cfg.Stdin))
	}
	if s.cfg.Stdout != nil {
		opts = append(opts, tea.WithOutput(s.cfg.Stdout))
	}
	p := tea.NewProgram(m, opts...)
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()

	_, err := p.Run()
	m.chat.Stop()
	if s.cfg.HistoryFile != "" {
		if err := m.history.Save(s.cfg.HistoryFile); err != nil {
			s.log.Warnw("failed to save history", "error", err)
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Send delivers msg to the running program. Messages sent before Run
// starts are dropped.
func (s *BubbleSession) Send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		s.log.Debugw("dropping message before start", "msg", fmt.Sprintf("%T", msg))
		return
	}
	p.Send(msg)
}

// bubbleModel is the Bubble Tea model of the full-screen interface.
type bubbleModel struct {
	ctx    context.Context
	chat   *chat.Session
	driver *driver
	view   *transcriptView
	log    *zap.SugaredLogger

	keys       keymap.KeyMap
	input      textarea.Model
	command    textinput.Model
	mode       editorMode
	transcript viewport.Model
	spinner    spinner.Model
	spinning   bool
	help       help.Model
	history    *history.History
	recalling  bool
	backend    string

	notice         string
	err            error
	interruptCount int
	lastCtrlC      time.Time
	follow         bool

	width, height int
	quitting      bool
}

func newBubbleModel(ctx context.Context, cfg Config, hist *history.History) *bubbleModel {
	log := cfg.logger()
	view := newTranscriptView()
	cc := cfg.chatConfig()
	cc.Renderer = view
	session := chat.New(ctx, cc)

	keys := keymap.DefaultKeyMap()
	input := textarea.New()
	input.Placeholder = "Ask a question (esc for commands, f1 for help)"
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.KeyMap.InsertNewline = keys.Newline
	input.Focus()

	cmdInput := textinput.New()
	cmdInput.Prompt = ":"
	cmdInput.CharLimit = 512

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &bubbleModel{
		ctx:        ctx,
		chat:       session,
		driver:     newDriver(session, cfg.Attachment, log),
		view:       view,
		log:        log,
		keys:       keys,
		input:      input,
		command:    cmdInput,
		transcript: viewport.New(80, 20),
		spinner:    sp,
		help:       help.New(keys),
		history:    hist,
		backend:    cfg.Backend,
		width:      80,
		height:     24,
	}
	m.resize(m.width, m.height)
	return m
}

func (m *bubbleModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.chat.Init())
}

func (m *bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		m.help, _ = m.help.Update(msg)
		if m.mode == modeCommand {
			cmds = append(cmds, m.updateCommandMode(msg))
		} else {
			cmds = append(cmds, m.updateInsertMode(msg))
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		cmds = append(cmds, cmd)
	case spinner.TickMsg:
		if m.needsSpinner() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			m.spinning = false
		}
	default:
		cmds = append(cmds, m.chat.Update(msg))
		var cmd tea.Cmd
		if m.mode == modeCommand {
			m.command, cmd = m.command.Update(msg)
		} else {
			m.input, cmd = m.input.Update(msg)
		}
		cmds = append(cmds, cmd)
	}
	if m.quitting {
		return m, tea.Quit
	}
	if m.needsSpinner() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m *bubbleModel) updateInsertMode(msg tea.KeyMsg) tea.Cmd {
	recalling := m.recalling
	m.recalling = false
	if !key.Matches(msg, m.keys.Interrupt) {
		m.interruptCount = 0
	}

	switch {
	case key.Matches(msg, m.keys.Interrupt):
		return m.interrupt()
	case key.Matches(msg, m.keys.Quit) && m.input.Value() == "":
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Suspend):
		return tea.Suspend
	case key.Matches(msg, m.keys.ToggleHelp):
		m.resize(m.width, m.height)
		return nil
	case key.Matches(msg, m.keys.Command):
		m.mode = modeCommand
		m.input.Blur()
		m.command.Reset()
		m.chat.Typing()
		return m.command.Focus()
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.PrevVersion):
		return m.apply(m.driver.navigate("", transcript.Previous))
	case key.Matches(msg, m.keys.NextVersion):
		return m.apply(m.driver.navigate("", transcript.Next))
	case key.Matches(msg, m.keys.EditLast):
		return m.apply(m.driver.edit(""))
	case key.Matches(msg, m.keys.RecallLast) && (recalling || m.input.Value() == ""):
		m.recalling = true
		if entry, ok := m.history.Prev(); ok {
			m.input.SetValue(entry)
		}
		return nil
	case msg.Type == tea.KeyDown && recalling:
		if entry, ok := m.history.Next(); ok {
			m.input.SetValue(entry)
			m.recalling = entry != ""
		}
		return nil
	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return cmd
	}

	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		m.chat.Typing()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *bubbleModel) updateCommandMode(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyEscape, key.Matches(msg, m.keys.Interrupt):
		m.leaveCommandMode()
		return nil
	case msg.Type == tea.KeyEnter:
		line := m.command.Value()
		m.leaveCommandMode()
		out, err := m.driver.execute(line)
		if errors.Is(err, ErrQuit) {
			m.quitting = true
			return tea.Quit
		}
		return m.apply(out, err)
	}
	var cmd tea.Cmd
	m.command, cmd = m.command.Update(msg)
	return cmd
}

func (m *bubbleModel) leaveCommandMode() {
	m.mode = modeInsert
	m.command.Blur()
	m.command.Reset()
	m.input.Focus()
}

func (m *bubbleModel) submit() tea.Cmd {
	text := m.input.Value()
	if strings.TrimSpace(text) != "" {
		m.history.Add(text)
	}
	m.input.Reset()
	m.err, m.notice = nil, ""
	m.follow = true
	return m.driver.submit(text)
}

// interrupt stops a running answer, then clears the input, then quits on
// a second press.
func (m *bubbleModel) interrupt() tea.Cmd {
	if m.chat.Running() {
		m.chat.Stop()
		m.notice = "stopped"
		return nil
	}
	if m.input.Value() != "" {
		m.input.Reset()
		m.chat.CancelEdit()
		return nil
	}
	now := time.Now()
	if m.interruptCount > 0 && now.Sub(m.lastCtrlC) < doublePressDuration {
		m.quitting = true
		return tea.Quit
	}
	m.interruptCount++
	m.lastCtrlC = now
	m.notice = "press ctrl+c again to quit"
	return nil
}

func (m *bubbleModel) apply(out outcome, err error) tea.Cmd {
	if err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	m.notice = out.Output
	if out.Edit != "" {
		m.input.SetValue(out.Edit)
	}
	if out.Shown != nil {
		m.view.showVersion(*out.Shown)
	}
	return out.Cmd
}

func (m *bubbleModel) needsSpinner() bool {
	if m.view.stop {
		return true
	}
	w := m.chat.Welcome()
	return w != nil && w.Phase() == welcome.Dots
}

func (m *bubbleModel) resize(width, height int) {
	m.width, m.height = width, height
	m.input.SetWidth(width)
	m.command.Width = max(width-2, 10)
	m.help.SetWidth(width)
	m.transcript.Width = width
	m.layout()
}

// layout gives the transcript the rows left over by the notice, input,
// status bar and help.
func (m *bubbleModel) layout() {
	chrome := lipgloss.Height(m.noticeView()) + m.input.Height() + 1 + lipgloss.Height(m.help.View())
	m.transcript.Height = max(m.height-chrome, 1)
}

func (m *bubbleModel) refresh() {
	m.layout()
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(m.view.render(m.chat, m.width, m.spinner.View()))
	if atBottom || m.follow {
		m.transcript.GotoBottom()
		m.follow = false
	}
}

func (m *bubbleModel) status() statusbar.StatusData {
	data := statusbar.StatusData{
		Mode:       "INSERT",
		Backend:    m.backend,
		Generating: m.chat.Running(),
	}
	if m.mode == modeCommand {
		data.Mode = "COMMAND"
	} else if id, ok := m.chat.PendingEdit(); ok {
		data.Mode = "EDIT " + id.String()
	}
	if m.driver.attach != nil {
		data.Attachment = m.driver.attach.Name
	}
	return data
}

func (m *bubbleModel) noticeView() string {
	switch {
	case m.err != nil:
		return errorStyle.Width(m.width).Render(fmt.Sprintf("Error: %v", m.err))
	case m.notice != "":
		return noticeStyle.Width(m.width).Render(m.notice)
	}
	return ""
}

func (m *bubbleModel) View() string {
	if m.quitting {
		return ""
	}
	var view strings.Builder
	view.WriteString(m.transcript.View())
	view.WriteString("\n")
	view.WriteString(m.noticeView())
	view.WriteString("\n")
	if m.mode == modeCommand {
		view.WriteString(m.command.View())
		view.WriteString(strings.Repeat("\n", max(m.input.Height()-1, 0)))
	} else {
		view.WriteString(m.input.View())
	}
	view.WriteString("\n")
	view.WriteString(statusbar.Render(m.width, m.status()))
	view.WriteString("\n")
	view.WriteString(m.help.View())
	return view.String()
}
