package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/utils"
)

const (
	LOG_LEVEL_DEBUG = "DEBUG"
	LOG_LEVEL_INFO  = "INFO"
	LOG_LEVEL_WARN  = "WARN"
	LOG_LEVEL_ERROR = "ERROR"
	LOG_LEVEL_FATAL = "FATAL"
	LOG_LEVEL_PANIC = "PANIC"
)

const logLevelEnv = "MDL_COMN_LOGLEVEL"

func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

func NewLogger(component string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, component)
}

// NewLoggerTo builds a component logger writing to w, at the level taken from
// MDL_COMN_LOGLEVEL.
func NewLoggerTo(w io.Writer, component string) zerolog.Logger {
	level, ok := os.LookupEnv(logLevelEnv)
	if !ok {
		level = LOG_LEVEL_INFO
	}
	return zerolog.New(w).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case LOG_LEVEL_DEBUG:
		return zerolog.DebugLevel
	case LOG_LEVEL_WARN:
		return zerolog.WarnLevel
	case LOG_LEVEL_ERROR:
		return zerolog.ErrorLevel
	case LOG_LEVEL_FATAL:
		return zerolog.FatalLevel
	case LOG_LEVEL_PANIC:
		return zerolog.PanicLevel
	}
	return zerolog.InfoLevel
}

// WithToken returns a child logger identifying the screening by the hash of
// its token. Raw tokens are bearer credentials and never logged.
func WithToken(l zerolog.Logger, token string) zerolog.Logger {
	return l.With().Str("token_hash", utils.HashToken(token)).Logger()
}
