package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/backends"
	"github.com/tmc/stepchat/chat"
	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/interactive"
	"github.com/tmc/stepchat/options"
)

func run(ctx context.Context, opts options.RunOptions, fs *pflag.FlagSet) error {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Examples != "" {
		return printExamples(opts.Stdout, opts.Examples)
	}

	oneShot := opts.Input != ""
	mode := opts.Mode
	if !oneShot {
		mode = resolveMode(mode, opts.Stdin, opts.Stdout)
	}

	logger, closeLog, err := newLogger(opts, mode == options.ModeTUI && !oneShot)
	if err != nil {
		return err
	}
	defer closeLog()
	defer logger.Sync()

	relay := &settingsRelay{log: logger}
	cfg, err := options.Watch(opts.Stderr, fs, logger, relay.update)
	if err != nil {
		return err
	}
	opts.Config = cfg

	svc, err := backends.InitializeService(cfg, logger,
		backends.WithUseLegacyMaxTokens(opts.OpenAIUseLegacyMaxTokens),
	)
	if err != nil {
		return err
	}

	var att *answer.Attachment
	if opts.Attach != "" {
		if att, err = answer.LoadAttachment(expandHome(opts.Attach)); err != nil {
			return err
		}
	}

	if oneShot {
		return ask(ctx, svc, opts, att, logger)
	}

	icfg := interactive.Config{
		Service:    svc,
		Logger:     logger,
		Settings:   cfg.Disclosure(),
		Timeout:    cfg.CompletionTimeout,
		Welcome:    cfg.Welcome(),
		Attachment: att,
		Backend:    backendLabel(cfg),
		Stdin:      opts.Stdin,
		Stdout:     opts.Stdout,
	}
	if opts.HistoryFile != "" {
		icfg.HistoryFile = expandHome(opts.HistoryFile)
	}

	var session interactive.Session
	if mode == options.ModeTUI {
		session = interactive.NewBubbleSession(icfg)
	} else {
		session = interactive.NewLineSession(icfg)
	}
	relay.attach(session)
	logger.Debugw("starting session", "mode", mode, "backend", icfg.Backend)

	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ask answers a single question and prints every step of the answer.
func ask(ctx context.Context, svc answer.Service, opts options.RunOptions, att *answer.Attachment, log *zap.SugaredLogger) error {
	if opts.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.CompletionTimeout)
		defer cancel()
	}
	query := strings.TrimSpace(opts.Input)
	if query == "-" {
		b, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		query = strings.TrimSpace(string(b))
	}

	text, err := svc.Answer(ctx, answer.Request{Query: query, Attachment: att})
	text, failed := answer.Fallback(text, err)
	if failed {
		log.Warnw("answer failed", "error", err)
	}

	units := disclosure.Segment(text)
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.Text
	}
	fmt.Fprintln(opts.Stdout, strings.Join(parts, "\n\n"))
	return err
}

// resolveMode picks the full-screen interface only when both ends are a
// terminal.
func resolveMode(mode options.Mode, stdin io.Reader, stdout io.Writer) options.Mode {
	if mode != options.ModeAuto && mode != "" {
		return mode
	}
	if isTerminal(stdin) && isTerminal(stdout) {
		return options.ModeTUI
	}
	return options.ModeLine
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func backendLabel(cfg *options.Config) string {
	if cfg.Model == "" {
		return cfg.Backend
	}
	return cfg.Backend + "/" + cfg.Model
}

// settingsRelay forwards disclosure settings from config file changes to
// the running session.
type settingsRelay struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	session interactive.Session
}

func (r *settingsRelay) attach(s interactive.Session) {
	r.mu.Lock()
	r.session = s
	r.mu.Unlock()
}

func (r *settingsRelay) update(cfg *options.Config) {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()
	if s == nil {
		return
	}
	settings := cfg.Disclosure()
	r.log.Infow("config changed", "batchSize", settings.BatchSize, "typeInterval", settings.Interval)
	s.Send(chat.SettingsMsg(settings))
}
