package postgres

import (
	"context"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

type DB struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port" default:"5432"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password" default:"postgres"`
	Name     string `yaml:"name" default:"books"`
	SSLMode  string `yaml:"sslmode" default:"disable"`
}

func (d *DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// NewPostgresDB connects via the pgx stdlib driver and, when migrationFiles
// is non-nil, runs goose migrations against the fresh connection.
func NewPostgresDB(ctx context.Context, cfg *DB, migrationFiles fs.FS) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}

	if migrationFiles != nil {
		goose.SetBaseFS(migrationFiles)
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, errors.Wrap(err, "goose dialect")
		}
		if err := goose.Up(db.DB, "."); err != nil {
			return nil, errors.Wrap(err, "migrations up")
		}
	}

	return db, nil
}
