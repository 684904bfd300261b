package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chzyer/readline"
	"github.com/tmc/spinner"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tmc/stepchat/chat"
	"github.com/tmc/stepchat/render"
	"github.com/tmc/stepchat/transcript"
)

var _ Session = (*LineSession)(nil)

// LineSession is the line-oriented interface. Input is read with readline
// while the conversation runs in a headless Bubble Tea program.
type LineSession struct {
	cfg Config
	log *zap.SugaredLogger

	mu      sync.Mutex
	program *tea.Program
}

// NewLineSession creates a readline based session.
func NewLineSession(cfg Config) *LineSession {
	return &LineSession{cfg: cfg, log: cfg.logger().Named("readline")}
}

type (
	lineMsg      string
	interruptMsg struct{}
)

// Run reads lines until EOF, :quit or the end of ctx.
func (s *LineSession) Run(ctx context.Context) error {
	rlCfg := &readline.Config{
		Prompt:            "> ",
		HistoryFile:       s.cfg.HistoryFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
	}
	stdout := s.cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if s.cfg.Stdin != nil {
		rlCfg.Stdin = io.NopCloser(s.cfg.Stdin)
	}
	rlCfg.Stdout = stdout
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	var closeOnce sync.Once
	closeReader := func() { closeOnce.Do(func() { rl.Close() }) }
	defer closeReader()

	r := newLineRenderer(rl.Stdout(), isTerminal(stdout))
	m := newLineModel(ctx, s.cfg, r)
	m.onQuit = closeReader
	m.onEdit = func(text string) { rl.WriteStdin([]byte(text)) }

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		closeReader()
		done <- err
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			p.Send(interruptMsg{})
			continue
		}
		if err != nil {
			break
		}
		p.Send(lineMsg(line))
	}
	p.Quit()
	err = <-done
	m.chat.Stop()
	r.stopSpinner()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Send delivers msg to the running program.
func (s *LineSession) Send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p == nil {
		s.log.Debugw("dropping message before start", "msg", fmt.Sprintf("%T", msg))
		return
	}
	p.Send(msg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// lineModel runs the conversation for the line interface.
type lineModel struct {
	chat   *chat.Session
	driver *driver
	r      *lineRenderer
	onQuit func()
	onEdit func(string)
}

func newLineModel(ctx context.Context, cfg Config, r *lineRenderer) *lineModel {
	cc := cfg.chatConfig()
	cc.Renderer = r
	s := chat.New(ctx, cc)
	return &lineModel{
		chat:   s,
		driver: newDriver(s, cfg.Attachment, cfg.logger()),
		r:      r,
	}
}

func (m *lineModel) Init() tea.Cmd { return m.chat.Init() }

func (m *lineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lineMsg:
		return m, m.handleLine(string(msg))
	case interruptMsg:
		if m.chat.Running() {
			m.chat.Stop()
			m.r.notice("stopped")
		} else {
			m.chat.CancelEdit()
			m.r.notice("(:quit or ctrl+d to leave)")
		}
		return m, nil
	}
	return m, m.chat.Update(msg)
}

func (m *lineModel) View() string { return "" }

func (m *lineModel) handleLine(line string) tea.Cmd {
	trimmed := strings.TrimSpace(line)
	if trimmed != "" {
		m.chat.Typing()
	}
	if !strings.HasPrefix(trimmed, ":") {
		return m.driver.submit(line)
	}
	out, err := m.driver.execute(trimmed)
	if errors.Is(err, ErrQuit) {
		if m.onQuit != nil {
			m.onQuit()
		}
		return tea.Quit
	}
	if err != nil {
		m.r.notice("error: " + err.Error())
		return nil
	}
	if out.Output != "" {
		m.r.notice(out.Output)
	}
	if out.Shown != nil {
		m.r.showVersion(*out.Shown)
	}
	if out.Edit != "" && m.onEdit != nil {
		m.onEdit(out.Edit)
	}
	return out.Cmd
}

var _ render.Renderer = (*lineRenderer)(nil)

// lineRenderer prints the conversation as a stream of lines.
type lineRenderer struct {
	w       io.Writer
	spin    bool
	stopFn  func()
	turn    transcript.TurnID
	unit    int // last unit written for turn, -1 when the line is closed
	welcome bool
}

func newLineRenderer(w io.Writer, spin bool) *lineRenderer {
	return &lineRenderer{w: w, spin: spin, unit: -1}
}

func (r *lineRenderer) AppendUnitText(turn transcript.TurnID, unit int, delta string) {
	r.stopSpinner()
	switch {
	case r.unit < 0 || turn != r.turn:
		r.closeLine()
		r.turn, r.unit = turn, unit
	case unit != r.unit:
		fmt.Fprint(r.w, "\n\n")
		r.unit = unit
	}
	fmt.Fprint(r.w, delta)
}

func (r *lineRenderer) ShowAdvance(turn transcript.TurnID, show bool) {
	if show {
		fmt.Fprint(r.w, "\n  [enter for more]")
	}
}

func (r *lineRenderer) ShowStop(show bool) {
	if show {
		r.startSpinner()
		return
	}
	r.stopSpinner()
	r.closeLine()
}

func (r *lineRenderer) ClearAnswer(turn transcript.TurnID) {
	r.closeLine()
	fmt.Fprintf(r.w, "(%v: new answer)\n", turn)
}

func (r *lineRenderer) HideTurn(turn transcript.TurnID) {
	r.closeLine()
	fmt.Fprintf(r.w, "(%v hidden)\n", turn)
}

func (r *lineRenderer) AppendWelcomeText(delta string) {
	r.welcome = true
	fmt.Fprint(r.w, delta)
}

func (r *lineRenderer) notice(text string) {
	r.closeLine()
	fmt.Fprintln(r.w, text)
}

// showVersion prints the selected version of t in full.
func (r *lineRenderer) showVersion(t transcript.Turn) {
	if v, ok := t.Version(); ok {
		r.closeLine()
		fmt.Fprintln(r.w, v.Text)
	}
}

// closeLine ends partially written output so the next write starts on a
// fresh line.
func (r *lineRenderer) closeLine() {
	if r.unit >= 0 || r.welcome {
		fmt.Fprintln(r.w)
	}
	r.unit = -1
	r.welcome = false
}

func (r *lineRenderer) startSpinner() {
	if !r.spin || r.stopFn != nil {
		return
	}
	s := spinner.New(
		spinner.WithFrames(spinner.Dots8),
		spinner.WithWriter(r.w),
		spinner.WithIntervalFunc(
			spinner.SpeedupInterval(90*time.Millisecond, 40*time.Millisecond, 5*time.Second),
		),
		spinner.WithColorFunc(spinner.GreyPulse(15*time.Millisecond)),
	)
	s.Start()
	r.stopFn = s.Stop
}

func (r *lineRenderer) stopSpinner() {
	if r.stopFn != nil {
		r.stopFn()
		r.stopFn = nil
	}
}
