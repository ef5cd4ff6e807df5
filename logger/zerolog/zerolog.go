// Package zerolog adapts rs/zerolog to the logger.Logger interface.
package zerolog

import (
	"io"
	"os"

	"github.com/Pizceda/cryptowatch/logger"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
)

// New builds a zerolog-backed logger. With jsonFormat disabled the output
// goes through a console writer with colored level tags.
func New(level, timeLayout string, colored, jsonFormat bool) (logger.Logger, error) {
	logMode, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(logMode)

	var out io.Writer = os.Stdout
	if !jsonFormat {
		writer := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			NoColor:    !colored,
			TimeFormat: timeLayout,
		}
		writer.FormatLevel = formatLevel
		out = writer
	}

	l := zerolog.New(out).With().Timestamp().Logger()
	return NewAdapter(&l), nil
}

func formatLevel(i any) string {
	levelStr, ok := i.(string)
	if !ok {
		return "[UNK]"
	}

	switch levelStr {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	case zerolog.LevelFatalValue:
		return term.Redf("[FTL]")
	default:
		return term.Whitef("[UNK]")
	}
}
