// Package logger provides the process-wide printf-style logger used across the CLI.
//
// Call sites follow the "component: message" convention, e.g.
//
//	logger.Debug("sharepoint: checking operation %s", id)
//
// Output goes to stderr through zap. Only warnings and errors are printed unless
// verbose mode is enabled with SetVerbose.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	sugar = newSugar(os.Stderr)
)

func newSugar(w io.Writer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// SetVerbose toggles debug output.
func SetVerbose(v bool) {
	if v {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.WarnLevel)
}

// IsVerbose reports whether debug output is enabled.
func IsVerbose() bool {
	return level.Enabled(zapcore.DebugLevel)
}

// SetOutput redirects log output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	sugar = newSugar(w)
}

// UseTest routes log output to the test's log until the returned function is called.
func UseTest(t zaptest.TestingT) (restore func()) {
	mu.Lock()
	prev := sugar
	sugar = zaptest.NewLogger(t, zaptest.Level(level)).Sugar()
	mu.Unlock()

	return func() {
		mu.Lock()
		sugar = prev
		mu.Unlock()
	}
}

// Debug logs a formatted message at debug level.
func Debug(format string, args ...any) {
	get().Debugf(format, args...)
}

// Info logs a formatted message at info level.
func Info(format string, args ...any) {
	get().Infof(format, args...)
}

// Warn logs a formatted message at warn level.
func Warn(format string, args ...any) {
	get().Warnf(format, args...)
}

// Error logs a formatted message at error level.
func Error(format string, args ...any) {
	get().Errorf(format, args...)
}

// Sync flushes buffered output.
func Sync() error {
	return get().Sync()
}
