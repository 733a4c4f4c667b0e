package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/telco-console/internal/config"
	"github.com/jrsteele09/telco-console/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	c := config.New()
	logger.Init(c.GetEnv(), c.GetLogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, os.Args[1:], os.Stdout); err != nil {
		stop()
		log.Fatal().Err(err).Msg("console")
	}
}
