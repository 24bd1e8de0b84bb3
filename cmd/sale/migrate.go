package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"saleservice/pkg/common/tenant"
	"saleservice/pkg/sale/infrastructure/postgres"
)

func migrate(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply schema migrations to a tenant schema",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "tenant",
				Usage:    "tenant subdomain, may be repeated",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := parseEnv()
			if err != nil {
				return err
			}
			if err := initLogger(logger, cfg.LogLevel); err != nil {
				return err
			}

			for _, subdomain := range c.StringSlice("tenant") {
				t, err := tenant.Parse(subdomain)
				if err != nil {
					return err
				}
				if err := postgres.MigrateTenant(c.Context, cfg.DatabaseDSN, t, logger); err != nil {
					return err
				}
				logger.WithField("tenant", t.String()).Info("tenant migrated")
			}
			return nil
		},
	}
}
