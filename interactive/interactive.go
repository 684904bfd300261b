// Package interactive provides the terminal front ends of stepchat: a
// full-screen Bubble Tea interface and a line-oriented readline interface.
package interactive

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/chat"
	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/welcome"
)

// ErrQuit is returned by a command that ends the session.
var ErrQuit = errors.New("quit")

// Config defines parameters for creating an interactive session.
type Config struct {
	Service  answer.Service
	Logger   *zap.SugaredLogger
	Settings disclosure.Settings
	Timeout  time.Duration
	Welcome  *welcome.Options

	// Attachment is sent with the first message.
	Attachment *answer.Attachment

	// Backend is shown in the status bar.
	Backend     string
	HistoryFile string

	Stdin  io.Reader
	Stdout io.Writer
}

func (c Config) chatConfig() chat.Config {
	return chat.Config{
		Service:  c.Service,
		Logger:   c.Logger,
		Settings: c.Settings,
		Timeout:  c.Timeout,
		Welcome:  c.Welcome,
	}
}

func (c Config) logger() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}

// Session is a running terminal front end.
type Session interface {
	// Run blocks until the user quits or ctx ends.
	Run(ctx context.Context) error
	// Send delivers a message to the session's update loop, for example a
	// chat.SettingsMsg after the configuration changed. It is safe to call
	// from any goroutine.
	Send(msg tea.Msg)
}

func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
