package cryptowatch

import (
	"os"
	"strconv"

	"github.com/Pizceda/cryptowatch/logger"
	"github.com/Pizceda/cryptowatch/logger/zerolog"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const (
	defaultLogLevel      = "debug"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "CRYPTOWATCH_LOG_LEVEL"
	envLogTimeFormat = "CRYPTOWATCH_LOG_TIME_FORMAT"
	envLogColor      = "CRYPTOWATCH_LOG_COLOR"
	envLogJSON       = "CRYPTOWATCH_LOG_JSON"
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}
	DefaultLog = log
}

// initLogger creates a logger configured from environment variables.
func initLogger() (logger.Logger, error) {
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	return zerolog.New(
		getEnvWithDefault(envLogLevel, defaultLogLevel),
		getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		logColored,
		logJSON,
	)
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	return strconv.ParseBool(getEnvWithDefault(key, defaultValue))
}
