package options

import (
	"io"
	"os"
	"strings"
)

var Getenv = os.Getenv

// Mode selects the interactive front end.
type Mode string

const (
	// ModeAuto picks the TUI on a terminal and line mode otherwise.
	ModeAuto Mode = "auto"
	ModeTUI  Mode = "tui"
	ModeLine Mode = "line"
)

// ParseMode validates a --mode value.
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, true
	case ModeAuto, ModeTUI, ModeLine:
		return m, true
	}
	return "", false
}

// RunOptions contains all the options that are relevant to run stepchat.
type RunOptions struct {
	// Config options
	*Config `json:"config,omitempty" yaml:"config,omitempty"`

	Mode Mode `json:"mode,omitempty" yaml:"mode,omitempty"`
	// Attach is an image attached to the first message.
	Attach string `json:"attach,omitempty" yaml:"attach,omitempty"`
	// Input asks a single question, prints the whole answer and exits.
	Input string `json:"input,omitempty" yaml:"input,omitempty"`
	// HistoryFile keeps the input history between runs.
	HistoryFile string `json:"historyFile,omitempty" yaml:"historyFile,omitempty"`
	PrintUsage  bool
	// Examples lists usage example sections to print, "all" or "list".
	Examples string `json:"-" yaml:"-"`

	// Verbosity options
	Verbose   bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	DebugMode bool   `json:"debugMode,omitempty" yaml:"debugMode,omitempty"`
	LogFile   string `json:"logFile,omitempty" yaml:"logFile,omitempty"` // Log file path

	// --- I/O handles passed in ---
	Stdout io.Writer `json:"-" yaml:"-"`
	Stderr io.Writer `json:"-" yaml:"-"`
	Stdin  io.Reader `json:"-" yaml:"-"`

	ConfigPath string `json:"configPath,omitempty" yaml:"configPath,omitempty"`

	// Backend/Provider-specific options.
	OpenAIUseLegacyMaxTokens bool `json:"openaiUseLegacyMaxTokens,omitempty"`
}
