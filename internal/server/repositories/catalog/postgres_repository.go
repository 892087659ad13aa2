package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/provenia/provenia/internal/common"
	"github.com/provenia/provenia/internal/dbx"
	"github.com/provenia/provenia/internal/server/models"
)

// pgUniqueViolation is the postgres error code for unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `id, owner_id, content_hash, content_id, thumbnail_cid,
		category, mime_type, size_bytes, is_public, is_active, created_at`

func (r *PostgresRepository) Create(ctx context.Context, entry *models.CatalogEntry) error {

	query :=
		`INSERT INTO catalog_entries
			(id, owner_id, content_hash, content_id, thumbnail_cid,
			 category, mime_type, size_bytes, is_public, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, $10);
		`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.OwnerID, entry.ContentHash, entry.ContentID, entry.ThumbnailCID,
		entry.Category, entry.MimeType, entry.SizeBytes, entry.Public, entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrDuplicateEntry
		}
		return fmt.Errorf("db error: %w", err)
	}

	entry.IsActive = true
	return nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, contentHash, ownerID string) (*models.CatalogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM catalog_entries
		WHERE content_hash=$1 AND owner_id=$2 AND is_active
		`

	return r.scanOne(r.db.QueryRowContext(ctx, query, contentHash, ownerID))
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*models.CatalogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM catalog_entries
		WHERE id=$1 AND owner_id=$2
		`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.CatalogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM catalog_entries
		WHERE owner_id=$1 AND is_active
		ORDER BY created_at DESC
		`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select catalog entries: %w", err)
	}

	var result []*models.CatalogEntry

	defer rows.Close()
	for rows.Next() {
		item, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, ownerID, id string) (*models.CatalogEntry, error) {
	query := `UPDATE catalog_entries SET is_active=false
		WHERE id=$1 AND owner_id=$2 AND is_active
		RETURNING ` + entryColumns

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, ownerID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.CatalogEntry, error) {
	item := &models.CatalogEntry{}
	err := row.Scan(&item.ID, &item.OwnerID, &item.ContentHash, &item.ContentID, &item.ThumbnailCID,
		&item.Category, &item.MimeType, &item.SizeBytes, &item.Public, &item.IsActive, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.CatalogEntry, error) {
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select catalog entry: %w", err)
	}
	return entry, nil
}
