package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-media/internal/domain"
	"catalog-media/internal/repository/asset"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

// AssetsRepository persists asset rows and their linkage to catalog owner
// records. Owner tables and mirror columns come from the resource kind
// whitelist; identifiers are never interpolated from request input.
type AssetsRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewAssetsRepository(db *dbpg.DB, retries retry.Strategy) *AssetsRepository {
	return &AssetsRepository{
		db:      db,
		retries: retries,
	}
}

// OwnerExists reports whether a catalog record of the given kind exists.
func (r *AssetsRepository) OwnerExists(ctx context.Context, kind domain.ResourceKind, ownerID int64) (bool, error) {
	table := kind.OwnerTable()
	if table == "" {
		return false, fmt.Errorf("unknown resource kind: %s", kind)
	}

	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)`, table)

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to query owner: %w", err)
	}

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to scan owner existence: %w", err)
	}
	return exists, nil
}

func (r *AssetsRepository) Save(ctx context.Context, a *domain.Asset) error {
	query := `
		INSERT INTO assets (
			id, owner_kind, owner_id, path, original_name,
			size, position, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecWithRetry(ctx, r.retries, query,
		a.ID,
		a.OwnerKind,
		a.OwnerID,
		a.Path,
		a.OriginalName,
		a.Size,
		a.Position,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func (r *AssetsRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := `
		SELECT id, owner_kind, owner_id, path, original_name,
		       size, position, created_at
		FROM assets
		WHERE id = $1
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}

	var a domain.Asset
	err = row.Scan(
		&a.ID,
		&a.OwnerKind,
		&a.OwnerID,
		&a.Path,
		&a.OriginalName,
		&a.Size,
		&a.Position,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, asset.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}
	return &a, nil
}

// Delete removes the asset row and returns the deleted asset so the caller
// can attempt physical cleanup afterwards.
func (r *AssetsRepository) Delete(ctx context.Context, id string) (*domain.Asset, error) {
	query := `
		DELETE FROM assets
		WHERE id = $1
		RETURNING id, owner_kind, owner_id, path, original_name,
		          size, position, created_at
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete asset: %w", err)
	}

	var a domain.Asset
	err = row.Scan(
		&a.ID,
		&a.OwnerKind,
		&a.OwnerID,
		&a.Path,
		&a.OriginalName,
		&a.Size,
		&a.Position,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, asset.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deleted asset: %w", err)
	}
	return &a, nil
}

func (r *AssetsRepository) ListByOwner(ctx context.Context, kind domain.ResourceKind, ownerID int64) ([]domain.Asset, error) {
	query := `
		SELECT id, owner_kind, owner_id, path, original_name,
		       size, position, created_at
		FROM assets
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY position, created_at
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, kind, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var a domain.Asset
		err := rows.Scan(
			&a.ID,
			&a.OwnerKind,
			&a.OwnerID,
			&a.Path,
			&a.OriginalName,
			&a.Size,
			&a.Position,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

// ListPaths returns every stored asset path. The auditor diffs this set
// against the physical directory listing.
func (r *AssetsRepository) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryWithRetry(ctx, r.retries, `SELECT path FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan asset path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset paths: %w", err)
	}
	return paths, nil
}

// LinkOwnerImage mirrors the path onto the owner row for single-image kinds.
func (r *AssetsRepository) LinkOwnerImage(ctx context.Context, kind domain.ResourceKind, ownerID int64, path string) error {
	col := kind.ImageColumn()
	if col == "" {
		return nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $1, updated_at = NOW() WHERE id = $2`, kind.OwnerTable(), col)

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, path, ownerID)
	if err != nil {
		return fmt.Errorf("failed to link owner image: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return asset.ErrOwnerNotFound
	}
	return nil
}

// UnlinkOwnerImage clears the mirror column when it still references the
// removed path.
func (r *AssetsRepository) UnlinkOwnerImage(ctx context.Context, kind domain.ResourceKind, ownerID int64, path string) error {
	col := kind.ImageColumn()
	if col == "" {
		return nil
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = NULL, updated_at = NOW() WHERE id = $1 AND %s = $2`, kind.OwnerTable(), col, col)

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query, ownerID, path); err != nil {
		return fmt.Errorf("failed to unlink owner image: %w", err)
	}
	return nil
}

// NextPosition returns the position for the next asset of an owner.
func (r *AssetsRepository) NextPosition(ctx context.Context, kind domain.ResourceKind, ownerID int64) (int, error) {
	query := `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM assets
		WHERE owner_kind = $1 AND owner_id = $2
	`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, kind, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to query next position: %w", err)
	}

	var pos int
	if err := row.Scan(&pos); err != nil {
		return 0, fmt.Errorf("failed to scan next position: %w", err)
	}
	return pos, nil
}
