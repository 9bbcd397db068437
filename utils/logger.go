package utils

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger. InitLogger must run
// before any service is constructed.
var Logger zerolog.Logger

// InitLogger configures zerolog: console output in development, plain
// JSON everywhere else.
func InitLogger(env string) {
	if env == "development" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		Logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func LogInfo(message string) {
	Logger.Info().Msg(message)
}

func LogWarning(message string) {
	Logger.Warn().Msg(message)
}

func LogError(message string, err error) {
	if err != nil {
		Logger.Error().Err(err).Msg(message)
		return
	}
	Logger.Error().Msg(message)
}

func LogFatal(message string, err error) {
	if err != nil {
		Logger.Fatal().Err(err).Msg(message)
	}
	Logger.Fatal().Msg(message)
}
