package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})

	app := &cli.App{
		Name:  "sale",
		Usage: "multi-tenant point of sale sales service",
		Commands: []*cli.Command{
			service(logger),
			migrate(logger),
		},
	}

	ctx := listenOSKillSignals(context.Background(), logger)
	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.WithError(err).Fatal("sale failed")
	}
}

func listenOSKillSignals(ctx context.Context, logger log.FieldLogger) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)

		select {
		case sig := <-ch:
			logger.WithField("signal", sig.String()).Info("got kill signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func initLogger(logger *log.Logger, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}
