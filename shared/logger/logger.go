package logger

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"slotkeeper/config"
	"slotkeeper/shared/constant"
)

const defaultLevel = zerolog.InfoLevel

// InitLogger replaces the global logger. Production emits JSON lines, other environments
// a console format.
func InitLogger(config *config.Config) {
	InitLoggerWithOutput(config, os.Stdout)
}

func InitLoggerWithOutput(config *config.Config, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	output := out
	if config.Server.Env != constant.ServerEnvProduction {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stdout}
	}

	logCtx := zerolog.New(output).With().Timestamp()
	if config.App.Name != constant.Empty {
		logCtx = logCtx.Str("app", config.App.Name)
	}

	log.Logger = logCtx.Logger()

	SetLogLevel(config)
}

func ErrorWithStack(err error) {
	log.Error().Msgf("%+v", errors.WithStack(err))
}

// SetLogLevel applies LOG_LEVEL. Unknown or empty values fall back to info.
func SetLogLevel(config *config.Config) {
	level, err := zerolog.ParseLevel(config.Server.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = defaultLevel
	}

	zerolog.SetGlobalLevel(level)

	log.Debug().Str("loglevel", level.String()).Msg("Log level configured.")
}
