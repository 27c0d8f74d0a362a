// Package logging builds the loggers of the collisionguard binaries.
package logging

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// GlobalLogLevel is shared by every logger built by this package, so debug output can be switched on
// for a running process.
var GlobalLogLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// zap's development config without stacktraces, with production keys and colored levels.
	return zap.Config{
		Level:    GlobalLogLevel,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new named logger writing to stdout at the global level.
func NewLogger(name string) golog.Logger {
	logger, err := NewLoggerConfig().Build()
	if err != nil {
		// the config only names stdout and stderr
		panic(err)
	}
	return logger.Sugar().Named(name)
}

// NewFileLogger is like NewLogger but also writes to a rotated log file at path. The returned closer
// closes the file.
func NewFileLogger(name, path string) (golog.Logger, io.Closer, error) {
	cfg := NewLoggerConfig()
	console, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Clean(path),
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
	fileEncoder := cfg.EncoderConfig
	fileEncoder.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(fileEncoder), zapcore.AddSync(file), GlobalLogLevel)
	logger := console.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
	return logger.Sugar().Named(name), file, nil
}

// InitLoggingSettings sets the global level to the named level, info when empty. debug overrides it.
func InitLoggingSettings(logger golog.Logger, level string, debug bool) error {
	l := zapcore.InfoLevel
	if level != "" {
		var err error
		if l, err = LevelFromString(level); err != nil {
			return err
		}
	}
	if debug {
		l = zapcore.DebugLevel
	}
	GlobalLogLevel.SetLevel(l)
	logger.Debugw("log level initialized", "level", GlobalLogLevel.Level())
	return nil
}

// LevelFromString parses a level name such as "debug" or "WARN".
func LevelFromString(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return level, errors.Errorf("unknown log level %q", name)
	}
	return level, nil
}
