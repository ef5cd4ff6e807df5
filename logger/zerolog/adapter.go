package zerolog

import (
	"fmt"

	"github.com/Pizceda/cryptowatch/logger"

	"github.com/rs/zerolog"
)

type Adapter struct {
	*zerolog.Logger
}

func NewAdapter(l *zerolog.Logger) *Adapter {
	return &Adapter{l}
}

// WithField implements logger.Logger.
func (a *Adapter) WithField(key string, value any) logger.Logger {
	l := a.With().Interface(key, value).Logger()
	return &Adapter{&l}
}

// WithFields implements logger.Logger.
func (a *Adapter) WithFields(fields map[string]any) logger.Logger {
	l := a.With().Fields(fields).Logger()
	return &Adapter{&l}
}

// WithError implements logger.Logger.
func (a *Adapter) WithError(err error) logger.Logger {
	l := a.With().Err(err).Logger()
	return &Adapter{&l}
}

func (a *Adapter) Debug(args ...any) {
	a.Logger.Debug().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Info(args ...any) {
	a.Logger.Info().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Warn(args ...any) {
	a.Logger.Warn().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Error(args ...any) {
	a.Logger.Error().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Fatal(args ...any) {
	a.Logger.Fatal().Msg(fmt.Sprint(args...))
}

func (a *Adapter) Debugf(format string, args ...any) {
	a.Logger.Debug().Msgf(format, args...)
}

func (a *Adapter) Infof(format string, args ...any) {
	a.Logger.Info().Msgf(format, args...)
}

func (a *Adapter) Warnf(format string, args ...any) {
	a.Logger.Warn().Msgf(format, args...)
}

func (a *Adapter) Errorf(format string, args ...any) {
	a.Logger.Error().Msgf(format, args...)
}

func (a *Adapter) Fatalf(format string, args ...any) {
	a.Logger.Fatal().Msgf(format, args...)
}
