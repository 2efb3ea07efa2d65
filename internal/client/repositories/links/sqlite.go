package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vaultshare/internal/client/models"
	"github.com/dmitrijs2005/vaultshare/internal/common"
	"github.com/dmitrijs2005/vaultshare/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (name, link_token, note, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			link_token = excluded.link_token,
			note = excluded.note,
			created_at = excluded.created_at
	`
	_, err := r.db.ExecContext(ctx, query, link.Name, link.LinkToken, link.Note, link.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, name string) (*models.Link, error) {
	query := `SELECT name, link_token, note, created_at FROM links WHERE name = ?`

	l := &models.Link{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&l.Name, &l.LinkToken, &l.Note, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, link_token, note, created_at FROM links ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select links: %w", err)
	}
	defer rows.Close()

	var result []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Name, &l.LinkToken, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("link %q: %w", name, common.ErrNotFound)
	}
	return nil
}
