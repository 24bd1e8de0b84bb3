package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const appID = "sale"

type config struct {
	ServeRESTAddress string `envconfig:"serve_rest_address" default:":8080"`
	ServeGRPCAddress string `envconfig:"serve_grpc_address" default:":8081"`
	LogLevel         string `envconfig:"log_level" default:"info"`

	DatabaseDSN             string        `envconfig:"database_dsn" required:"true"`
	DatabaseMaxOpenConns    int           `envconfig:"database_max_open_conns" default:"20"`
	DatabaseMaxIdleConns    int           `envconfig:"database_max_idle_conns" default:"5"`
	DatabaseConnMaxLifetime time.Duration `envconfig:"database_conn_max_lifetime" default:"30m"`

	DefaultJurisdiction    string        `envconfig:"default_jurisdiction" default:"MG"`
	MaxSyncBatchSize       int           `envconfig:"max_sync_batch_size" default:"500"`
	PaymentMethodCacheSize int           `envconfig:"payment_method_cache_size" default:"1024"`
	PaymentMethodCacheTTL  time.Duration `envconfig:"payment_method_cache_ttl" default:"5m"`

	ShutdownTimeout time.Duration `envconfig:"shutdown_timeout" default:"15s"`
}

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	return c, nil
}
