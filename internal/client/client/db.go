package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/vaultshare/internal/client/migrations"
	"github.com/dmitrijs2005/vaultshare/internal/client/repositories/links"
	"github.com/dmitrijs2005/vaultshare/internal/client/repositories/metadata"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local stores over one SQLite handle.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Links    links.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Links:    links.NewSQLiteRepository(db),
	}, nil
}
