// Command server runs the matching engine behind the TCP wire protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"skadi/internal/config"
	"skadi/internal/engine"
	"skadi/internal/net"
	"skadi/internal/reporting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var writer = os.Stderr
	logger := zerolog.New(zerolog.ConsoleWriter{Out: writer}).
		Level(level).
		With().
		Timestamp().
		Logger()
	if !cfg.Logging.Pretty {
		logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	reporter := reporting.NewStdout(logger)
	eng := engine.New(cfg.Engine.Symbols, reporter, logger)

	srv := net.New(cfg.Server.ListenAddr, eng, cfg.Server.Workers)

	logger.Info().Str("config", cfg.String()).Msg("starting skadi")

	go srv.Run(ctx)
	<-ctx.Done()
}
