package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/de-tools/turbo-critical/pkg/runtime/terminal"
	"github.com/de-tools/turbo-critical/pkg/runtime/terminal/commands"
	"github.com/de-tools/turbo-critical/pkg/services/config"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger().
		Level(logLevel())

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Err(err).Msg("failed to load .env file")
	}

	profilePath, err := config.DefaultProfilePath()
	if err != nil {
		logger.Debug().Err(err).Msg("no default profile file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli := terminal.NewCLI(terminal.Options{
		Output:      os.Stdout,
		Logger:      logger,
		Prompt:      commands.TerminalPrompt(os.Stdin, os.Stderr),
		ProfilePath: profilePath,
	})

	err = cli.Execute(ctx)
	stop()
	if err == nil {
		return
	}

	var fatal *commands.FatalError
	if !errors.As(err, &fatal) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

// logLevel reads TURBO_LOG_LEVEL, warnings and errors are logged by default
func logLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv("TURBO_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return level
}
