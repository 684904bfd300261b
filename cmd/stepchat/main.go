// Command stepchat is a terminal chat client for step-by-step answers.
// Answers are typed out a few steps at a time; press enter for more.
//
// Usage:
//
//	stepchat [flags] [question...]
//
// Flags:
//
//	-b, --backend string              The backend to use (default "http")
//	-m, --model string                The model to use
//	    --endpoint string             Base URL of the http backend (default "http://localhost:8000")
//	-s, --system-prompt string        System prompt to use
//	-t, --max-tokens int              Maximum tokens to generate (default 4096)
//	    --completion-timeout duration Maximum time to wait for an answer (default 2m0s)
//	    --batch-size int              Steps revealed before waiting for enter (default 3)
//	    --type-interval duration      Delay between typed characters (default 15ms)
//	    --no-welcome                  Skip the welcome message
//	-a, --attach string               Image to send with the first message
//	-i, --input string                Ask one question, print the answer and exit
//	    --mode string                 Front end: auto, tui or line (default "auto")
//	    --config string               Path to the configuration file (default "config.yaml")
//	    --log-file string             Write logs to this file
//	-v, --verbose                     Verbose output
//	    --debug                       Debug output
//	-h, --help                        Display help information
//
// With a question on the command line (or -i) stepchat prints the whole
// answer and exits. Otherwise it starts an interactive session: the
// full-screen interface when attached to a terminal, a readline prompt
// when not. Inside a session, type :help for commands.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/options"
	"github.com/tmc/stepchat/welcome"
)

func main() {
	opts, fs, err := initFlags(os.Args, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.PrintUsage {
		fs.Usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts, fs); err != nil {
		fmt.Fprintln(os.Stderr, "stepchat:", err)
		stop()
		os.Exit(1)
	}
}

// initFlags defines the command line flags on a new flag set and parses
// args (args[0] is the program name).
func initFlags(args []string, stdin io.Reader) (options.RunOptions, *pflag.FlagSet, error) {
	opts := options.RunOptions{
		Stdin:  stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	name := "stepchat"
	if len(args) > 0 {
		name = filepath.Base(args[0])
		args = args[1:]
	}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	var mode string
	fs.StringP("backend", "b", options.DefaultBackend, "The backend to use")
	fs.StringP("model", "m", "", "The model to use")
	fs.String("endpoint", options.DefaultEndpoint, "Base URL of the http backend")
	fs.StringP("system-prompt", "s", "", "System prompt to use")
	fs.IntP("max-tokens", "t", 4096, "Maximum tokens to generate")
	fs.Float64("temperature", 0.05, "Sampling temperature")
	fs.Bool("plain-text", true, "Render markdown answers as plain text")
	fs.Duration("completion-timeout", 2*time.Minute, "Maximum time to wait for an answer")
	fs.Float64("rate-limit", 2, "Maximum answer requests per second")
	fs.Int("retry-attempts", 3, "Attempts per answer request")

	fs.Int("batch-size", disclosure.DefaultBatchSize, "Steps revealed before waiting for enter")
	fs.Duration("type-interval", disclosure.DefaultInterval, "Delay between typed characters")
	fs.Duration("trailing-pause", disclosure.DefaultTrailingPause, "Pause after each typed step")
	fs.Bool("no-welcome", false, "Skip the welcome message")
	fs.String("welcome-message", welcome.DefaultMessage, "Greeting typed when the session starts")

	fs.StringVarP(&opts.Attach, "attach", "a", "", "Image to send with the first message")
	fs.StringVarP(&opts.Input, "input", "i", "", "Ask one question, print the answer and exit")
	fs.StringVar(&mode, "mode", string(options.ModeAuto), "Front end: auto, tui or line")
	fs.StringVar(&opts.HistoryFile, "history-file", "~/.stepchat_history", "File to keep input history in")

	fs.StringVar(&opts.ConfigPath, "config", "config.yaml", "Path to the configuration file")
	fs.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&opts.DebugMode, "debug", false, "Debug output")
	fs.StringVar(&opts.Examples, "examples", "", "Print usage examples (a section name, \"all\" or \"list\")")
	fs.Lookup("examples").NoOptDefVal = "all"
	fs.BoolVarP(&opts.PrintUsage, "help", "h", false, "Display help information")

	// hidden flags
	fs.Bool("slow-responses", false, "Slow down the dummy backend")
	fs.BoolVar(&opts.OpenAIUseLegacyMaxTokens, "openai-use-legacy-max-tokens", false, "Send max_tokens instead of max_completion_tokens")
	fs.MarkHidden("slow-responses")
	fs.MarkHidden("openai-use-legacy-max-tokens")

	fs.Usage = func() {
		fmt.Fprintln(opts.Stderr, "stepchat is a terminal chat client for step-by-step answers")
		fmt.Fprintln(opts.Stderr)
		fmt.Fprintf(opts.Stderr, "Usage of %s:\n", name)
		fs.PrintDefaults()
		fmt.Fprintln(opts.Stderr)
		fmt.Fprintln(opts.Stderr, basicUsage())
	}
	fs.SetOutput(opts.Stderr)

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}
	m, ok := options.ParseMode(mode)
	if !ok {
		return opts, fs, fmt.Errorf("invalid --mode %q (want auto, tui or line)", mode)
	}
	opts.Mode = m
	if opts.Input == "" && fs.NArg() > 0 {
		opts.Input = strings.Join(fs.Args(), " ")
	}
	return opts, fs, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
