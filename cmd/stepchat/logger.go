package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tmc/stepchat/options"
)

const (
	grey          = "\033[38;5;240m"
	boldLightGrey = "\033[1;38;5;240m"
	red           = "\033[38;5;9m"
	yellow        = "\033[38;5;11m"
	reset         = "\033[0m"
)

// fullLineColorLevelEncoder colors the entire output line based on log level
func fullLineColorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch l {
	case zapcore.DebugLevel:
		color = grey
	case zapcore.InfoLevel:
		color = boldLightGrey
	case zapcore.WarnLevel:
		color = yellow
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = red
	default:
		color = reset
	}
	enc.AppendString(color + l.CapitalString())
}

// newLogger builds the logger for a run. The full-screen interface owns
// the terminal, so its logs go to --log-file or nowhere. The returned
// func closes the log file.
func newLogger(opts options.RunOptions, fullScreen bool) (*zap.SugaredLogger, func(), error) {
	w, closeFn := opts.Stderr, func() {}
	if opts.LogFile != "" {
		f, err := os.OpenFile(expandHome(opts.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closeFn = f, func() { f.Close() }
	} else if fullScreen {
		return zap.NewNop().Sugar(), closeFn, nil
	}
	return NewLogger(w, opts.Verbose, opts.DebugMode), closeFn, nil
}

// NewLogger creates a console logger writing to w. Level is Warn, Info
// with verbose and Debug with debug. Lines are colored only on a terminal.
func NewLogger(w io.Writer, verbose, debug bool) *zap.SugaredLogger {
	if w == nil {
		w = os.Stderr
	}
	color := isTerminal(w)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.LevelKey = "L"
	encCfg.NameKey = "N"
	encCfg.CallerKey = ""
	encCfg.FunctionKey = ""
	encCfg.MessageKey = "M"
	encCfg.StacktraceKey = "S"
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.ConsoleSeparator = " "
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encCfg.EncodeLevel = fullLineColorLevelEncoder
		encCfg.LineEnding = reset + zapcore.DefaultLineEnding
	} else {
		// Log files get timestamps.
		encCfg.TimeKey = "T"
		encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	}

	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		level.SetLevel(zapcore.InfoLevel)
	}
	var zopts []zap.Option
	if debug {
		level.SetLevel(zapcore.DebugLevel)
		encCfg.CallerKey = "C"
		zopts = append(zopts, zap.AddCaller())
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core, zopts...).Sugar()
}
