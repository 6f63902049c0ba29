// Package logger builds the zap-backed logr.Logger used by the CLI and hands
// it to the engine packages, which only ever see a logr.Logger.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oakwood-commons/propinspect/pkg/settings"
)

// Field keys shared by every record.
const (
	CommitKey    = "commit"
	VersionKey   = "version"
	GoVersionKey = "go_version"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

type loggerKey struct{}

// Options configures a logger.
type Options struct {
	// Level is a zap level; logr V(n) maps to zap level -n.
	Level int8
	// Format is settings.LogFormatConsole or settings.LogFormatJSON.
	Format string
	// Writer defaults to stderr.
	Writer io.Writer
}

var (
	once   sync.Once
	global *zap.Logger
	root   = logr.Discard()
)

// New builds a zap logger and its logr wrapper without touching the global.
func New(opts Options) (*zap.Logger, logr.Logger) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	var encoder zapcore.Encoder
	if opts.Format == settings.LogFormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}

	fields := []zapcore.Field{
		zap.String(CommitKey, settings.VersionInformation.Commit),
		zap.String(VersionKey, settings.VersionInformation.BuildVersion),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		fields = append(fields, zap.String(GoVersionKey, info.GoVersion))
	}
	core := zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(zapcore.Level(opts.Level)),
	)
	if opts.Format == settings.LogFormatJSON {
		core = core.With(fields)
	}

	zl := zap.New(core, zap.AddStacktrace(zap.ErrorLevel))
	return zl, zapr.NewLogger(zl)
}

// Init configures the process-wide logger. Only the first call has an effect.
func Init(opts Options) logr.Logger {
	once.Do(func() {
		global, root = New(opts)
	})
	return root
}

// Global returns the process-wide logger, or a discard logger before Init.
func Global() logr.Logger { return root }

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l logr.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger attached to ctx, falling back to Global.
func FromContext(ctx context.Context) logr.Logger {
	if l, ok := ctx.Value(loggerKey{}).(logr.Logger); ok {
		return l
	}
	return root
}

// Sync flushes buffered records. Call it before exit.
func Sync() {
	if global == nil {
		return
	}
	if err := global.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
	}
}

// isIgnorableSyncError matches the errors syncing a pipe or TTY returns.
// Windows consoles wrap ERROR_INVALID_HANDLE, so that one is string-matched.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}
