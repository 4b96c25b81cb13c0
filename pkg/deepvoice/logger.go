package deepvoice

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// VoiceLogger wraps zerolog for structured logging
type VoiceLogger struct {
	logger zerolog.Logger
}

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// LogConfig represents the configuration for logging
type LogConfig struct {
	Level     LogLevel
	Pretty    bool
	Output    io.Writer
	AddSource bool
	Fields    map[string]interface{}
}

// DefaultLogConfig returns a default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:  InfoLevel,
		Pretty: true,
		Output: os.Stdout,
		Fields: make(map[string]interface{}),
	}
}

// NewVoiceLogger creates a new structured logger
func NewVoiceLogger(config *LogConfig) *VoiceLogger {
	if config == nil {
		config = DefaultLogConfig()
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger

	if config.Pretty {
		logger = log.Output(zerolog.ConsoleWriter{
			Out:        config.Output,
			TimeFormat: time.Kitchen,
		})
	} else {
		logger = zerolog.New(config.Output)
	}

	switch config.Level {
	case DebugLevel:
		logger = logger.Level(zerolog.DebugLevel)
	case InfoLevel:
		logger = logger.Level(zerolog.InfoLevel)
	case WarnLevel:
		logger = logger.Level(zerolog.WarnLevel)
	case ErrorLevel:
		logger = logger.Level(zerolog.ErrorLevel)
	case FatalLevel:
		logger = logger.Level(zerolog.FatalLevel)
	}

	logger = logger.With().Timestamp().Logger()

	if config.AddSource {
		logger = logger.With().Caller().Logger()
	}

	if len(config.Fields) > 0 {
		logger = logger.With().Fields(config.Fields).Logger()
	}

	return &VoiceLogger{logger: logger}
}

// WithComponent adds a component field to the logger
func (l *VoiceLogger) WithComponent(component string) *VoiceLogger {
	return &VoiceLogger{
		logger: l.logger.With().Str("component", component).Logger(),
	}
}

// WithField adds a field to the logger
func (l *VoiceLogger) WithField(key string, value interface{}) *VoiceLogger {
	return &VoiceLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}

// WithFields adds multiple fields to the logger
func (l *VoiceLogger) WithFields(fields map[string]interface{}) *VoiceLogger {
	return &VoiceLogger{
		logger: l.logger.With().Fields(fields).Logger(),
	}
}

// WithError adds an error field to the logger
func (l *VoiceLogger) WithError(err error) *VoiceLogger {
	return &VoiceLogger{
		logger: l.logger.With().Err(err).Logger(),
	}
}

func (l *VoiceLogger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *VoiceLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *VoiceLogger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *VoiceLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *VoiceLogger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *VoiceLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *VoiceLogger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *VoiceLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *VoiceLogger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

func (l *VoiceLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal().Msgf(format, args...)
}

// LogPhaseEvent logs session phase transitions with structured fields
func (l *VoiceLogger) LogPhaseEvent(from, to SessionPhase, fields map[string]interface{}) {
	l.logger.Info().
		Str("event_type", "phase").
		Str("from", string(from)).
		Str("to", string(to)).
		Fields(fields).
		Msg("Phase transition")
}

// LogAudioEvent logs capture and playback events with structured fields
func (l *VoiceLogger) LogAudioEvent(event string, fields map[string]interface{}) {
	l.logger.Info().
		Str("event_type", "audio").
		Str("event", event).
		Fields(fields).
		Msg("Audio event")
}

// LogError logs a VoiceError with structured fields
func (l *VoiceLogger) LogError(err *VoiceError) {
	l.logger.Error().
		Str("error_code", err.Code).
		Float64("timestamp", err.Timestamp).
		Fields(err.Details).
		Msg(err.Message)
}

// Global logger instance
var globalLogger *VoiceLogger

func init() {
	globalLogger = NewVoiceLogger(DefaultLogConfig())
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *VoiceLogger {
	return globalLogger
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *VoiceLogger) {
	globalLogger = logger
}
