package postgres

import (
	"context"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"saleservice/pkg/common/tenant"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrateTenant creates the tenant schema when missing and brings it to the latest migration.
func MigrateTenant(ctx context.Context, dsn string, t tenant.Tenant, logger log.FieldLogger) error {
	if t.IsZero() {
		return tenant.ErrTenantRequired
	}

	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return errors.Wrap(err, "parse database dsn")
	}
	config.RuntimeParams["search_path"] = t.Schema()

	db := stdlib.OpenDB(*config)
	defer db.Close()

	schema := pgx.Identifier{t.Schema()}.Sanitize()
	if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+schema); err != nil {
		return errors.Wrapf(err, "create schema for tenant %s", t)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "open migrations")
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{SchemaName: t.Schema()})
	if err != nil {
		return errors.Wrap(err, "open migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}
	m.Log = migrateLogger{logger: logger.WithField("tenant", t.String())}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.WithField("tenant", t.String()).Info("tenant schema is up to date")
		return nil
	}
	return errors.Wrapf(err, "migrate tenant %s", t)
}

type migrateLogger struct {
	logger log.FieldLogger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
