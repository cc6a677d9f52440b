// Package logger owns the process-wide zap logger. Both binaries call Init
// before any other package runs, so the rest of the code logs through Log
// without nil checks; test packages do the same from an init function.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// Init builds the global logger. Production JSON output is the default; the
// debug level switches to the human-readable development encoder. A non-empty
// logFile duplicates output into that file alongside stdout.
func Init(level string, logFile string) error {
	var config zap.Config
	if level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	if logFile != "" {
		config.OutputPaths = append(config.OutputPaths, logFile)
	}

	var err error
	Log, err = config.Build()
	return err
}

// parseLevel maps a config string to a zap level. Unknown strings fall back
// to info rather than failing startup.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered entries. Mains defer it; syncing stdout can return
// an error on some platforms, which callers ignore.
func Sync() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}
