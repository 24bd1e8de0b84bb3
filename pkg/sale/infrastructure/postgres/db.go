package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"saleservice/pkg/common/tenant"
)

const uniqueViolation = "23505"

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func Open(ctx context.Context, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return db, nil
}

// inTenantTx runs fn in a transaction whose search_path points at the tenant schema.
// The setting is transaction-local, so pooled connections never leak a schema to another tenant.
func inTenantTx(ctx context.Context, db *sqlx.DB, t tenant.Tenant, readOnly bool, fn func(tx *sqlx.Tx) error) error {
	if t.IsZero() {
		return tenant.ErrTenantRequired
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT set_config('search_path', $1, true)`, t.Schema()); err != nil {
		return errors.Wrapf(err, "select schema for tenant %s", t)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

// uniqueConstraint returns the name of the violated unique constraint, if err is a unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
