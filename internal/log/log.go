// Package log holds the process-wide zap logger. Reports own stdout, so
// records go to stderr and, when --log-path is set, to a rotating file.
package log

import (
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	flagPath       = "log-path"
	flagMaxSize    = "log-max-size"
	flagMaxAge     = "log-max-age"
	flagMaxBackups = "log-max-backups"
)

var logger = New(false, nil)

// Logger returns the current logger.
func Logger() *zap.Logger { return logger }

// Silence drops every record. Tests call it to keep output clean.
func Silence() { logger = zap.New(zapcore.NewNopCore()) }

// AddFlags registers the file sink flags.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(flagPath, "", "also write logs to this file")
	fs.Int(flagMaxSize, 100, "rotate the log file after this many megabytes")
	fs.Int(flagMaxAge, 0, "days to keep rotated log files (0 keeps all)")
	fs.Int(flagMaxBackups, 0, "rotated log files to keep (0 keeps all)")
}

// Configure replaces the logger according to the flags registered by
// AddFlags. fs may be nil.
func Configure(fs *pflag.FlagSet, debug bool) {
	logger = New(debug, rotationFrom(fs))
}

// New builds a logger writing to stderr and, if file is set, to file.
// Debug mode logs human-readable lines from debug level up; otherwise JSON
// from info level up.
func New(debug bool, file *lumberjack.Logger) *zap.Logger {
	level := zapcore.InfoLevel
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)
	if debug {
		level = zapcore.DebugLevel
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	sink := zapcore.Lock(os.Stderr)
	if file != nil {
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(file))
	}
	return zap.New(zapcore.NewCore(encoder, sink, level), zap.ErrorOutput(zapcore.Lock(os.Stderr)))
}

func rotationFrom(fs *pflag.FlagSet) *lumberjack.Logger {
	if fs == nil || !fs.Changed(flagPath) {
		return nil
	}
	path, _ := fs.GetString(flagPath)
	if path == "" {
		return nil
	}
	maxSize, _ := fs.GetInt(flagMaxSize)
	maxAge, _ := fs.GetInt(flagMaxAge)
	maxBackups, _ := fs.GetInt(flagMaxBackups)
	return &lumberjack.Logger{Filename: path, MaxSize: maxSize, MaxAge: maxAge, MaxBackups: maxBackups}
}
