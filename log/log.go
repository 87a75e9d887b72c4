// Package log is the process wide logger, a zap SugaredLogger set up by Init.
package log

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log      *zap.SugaredLogger
	errorLog *os.File

	// panicOnInvalidChars is read from $LOG_PANIC_ON_INVALIDCHARS by Init
	panicOnInvalidChars bool

	// logTestWriter receives the output when Init is called with logTestWriterName
	logTestWriter   io.Writer
	logTestWriterMu sync.Mutex
)

const logTestWriterName = "logtestwriter://"

func init() {
	if err := zap.RegisterSink("logtestwriter", func(*url.URL) (zap.Sink, error) {
		return testSink{}, nil
	}); err != nil {
		panic(err)
	}
	// $LOG_LEVEL applies before Init is called, tests included.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	Init(level, "stderr")
}

type testSink struct{}

func (testSink) Write(p []byte) (int, error) {
	logTestWriterMu.Lock()
	defer logTestWriterMu.Unlock()
	if logTestWriter == nil {
		return len(p), nil
	}
	return logTestWriter.Write(p)
}

func (testSink) Sync() error  { return nil }
func (testSink) Close() error { return nil }

// Logger returns the underlying zap logger.
func Logger() *zap.SugaredLogger { return log }

// Init sets up the logger. output is stdout, stderr or a file path. An
// unknown level falls back to info.
func Init(logLevel string, output string) {
	logger, err := newConfig(logLevel, output).Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log = logger.Sugar()
	log.Infof("logger construction succeeded at level %s with output %s", logLevel, output)

	if s := os.Getenv("LOG_PANIC_ON_INVALIDCHARS"); s != "" {
		// a value that does not parse leaves the check disabled
		panicOnInvalidChars, _ = strconv.ParseBool(s)
	}
}

// SetFileErrorLog makes warnings and errors also go to the file at path,
// without colors.
func SetFileErrorLog(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	errorLog = f
	enc := encoderConfig()
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), zap.WarnLevel)
	log = log.Desugar().WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})).Sugar()
	log.Infof("using file %s for logging warnings and errors", path)
	return nil
}

// ValidLevel reports whether logLevel is one of the supported level names.
func ValidLevel(logLevel string) bool {
	_, ok := levels[logLevel]
	return ok
}

var levels = map[string]zapcore.Level{
	"debug": zap.DebugLevel,
	"info":  zap.InfoLevel,
	"warn":  zap.WarnLevel,
	"error": zap.ErrorLevel,
	"fatal": zap.FatalLevel,
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalColorLevelEncoder,
		EncodeTime: func(ts time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(ts.Local().Format(time.RFC3339))
		},
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func newConfig(logLevel, output string) zap.Config {
	level, ok := levels[logLevel]
	if !ok {
		level = zap.InfoLevel
	}
	enc := encoderConfig()
	if output != "stdout" && output != "stderr" {
		// colors only on terminals
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		EncoderConfig:    enc,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}
}

// checkInvalidChars panics if the message holds the Unicode replacement char,
// only when $LOG_PANIC_ON_INVALIDCHARS is true.
func checkInvalidChars(msg func() string) {
	if !panicOnInvalidChars {
		return
	}
	if s := msg(); strings.ContainsRune(s, '\uFFFD') {
		panic(fmt.Sprintf("log line with invalid chars: %s", s))
	}
}

func sprint(args []any) func() string {
	return func() string { return fmt.Sprint(args...) }
}

func sprintf(template string, args []any) func() string {
	return func() string { return fmt.Sprintf(template, args...) }
}

// Debug sends a debug level log message
func Debug(args ...any) {
	log.Debug(args...)
	checkInvalidChars(sprint(args))
}

// Info sends an info level log message
func Info(args ...any) {
	log.Info(args...)
	checkInvalidChars(sprint(args))
}

// Warn sends a warn level log message
func Warn(args ...any) {
	log.Warn(args...)
	checkInvalidChars(sprint(args))
}

// Error sends an error level log message
func Error(args ...any) {
	log.Error(args...)
	checkInvalidChars(sprint(args))
}

// Fatal sends a fatal level log message and exits.
func Fatal(args ...any) {
	log.Fatal(args...)
	// tells static analyzers that Fatal never returns
	panic("unreachable")
}

// Debugf sends a formatted debug level log message
func Debugf(template string, args ...any) {
	log.Debugf(template, args...)
	checkInvalidChars(sprintf(template, args))
}

// Infof sends a formatted info level log message
func Infof(template string, args ...any) {
	log.Infof(template, args...)
	checkInvalidChars(sprintf(template, args))
}

// Warnf sends a formatted warn level log message
func Warnf(template string, args ...any) {
	log.Warnf(template, args...)
	checkInvalidChars(sprintf(template, args))
}

// Errorf sends a formatted error level log message
func Errorf(template string, args ...any) {
	log.Errorf(template, args...)
	checkInvalidChars(sprintf(template, args))
}

// Fatalf sends a formatted fatal level log message and exits.
func Fatalf(template string, args ...any) {
	log.Fatalf(template, args...)
	panic("unreachable")
}

// Debugw sends a debug level message with key-value pairs
func Debugw(msg string, keysAndValues ...any) { log.Debugw(msg, keysAndValues...) }

// Infow sends an info level message with key-value pairs
func Infow(msg string, keysAndValues ...any) { log.Infow(msg, keysAndValues...) }

// Warnw sends a warn level message with key-value pairs
func Warnw(msg string, keysAndValues ...any) { log.Warnw(msg, keysAndValues...) }

// Errorw sends an error level message with key-value pairs
func Errorw(msg string, keysAndValues ...any) { log.Errorw(msg, keysAndValues...) }

// Fatalw sends a fatal level message with key-value pairs and exits.
func Fatalw(msg string, keysAndValues ...any) {
	log.Fatalw(msg, keysAndValues...)
	panic("unreachable")
}
