package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// Logger adapts a zerolog.Logger to watermill.
type Logger struct {
	l zerolog.Logger
}

func NewLogger(l zerolog.Logger) watermill.LoggerAdapter {
	return Logger{l: l}
}

func (w Logger) Error(msg string, err error, fields watermill.LogFields) {
	w.l.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (w Logger) Info(msg string, fields watermill.LogFields) {
	w.l.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Debug is logged at trace level, watermill is chatty.
func (w Logger) Debug(msg string, fields watermill.LogFields) {
	w.l.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (w Logger) Trace(msg string, fields watermill.LogFields) {
	w.l.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (w Logger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return Logger{l: w.l.With().Fields(map[string]interface{}(fields)).Logger()}
}
