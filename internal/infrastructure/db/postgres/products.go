package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/apothio/storefront-reco/internal/domain"
)

// ProductRepo reads the catalog. The catalog is owned elsewhere; this
// service never writes it.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ListByTags returns products carrying at least one of the given tags,
// newest first.
func (r *ProductRepo) ListByTags(ctx context.Context, tags []string, limit int) ([]domain.Product, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, listByTagsSQL, pq.Array(tags), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

// ListLatest is the generic non-personalized listing used as the
// recommendation fallback.
func (r *ProductRepo) ListLatest(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, listLatestSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		var (
			p         domain.Product
			thumbnail sql.NullString
			tags      pq.StringArray
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &thumbnail, &tags, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ThumbnailURL = thumbnail.String
		p.Tags = []string(tags)
		out = append(out, p)
	}
	return out, rows.Err()
}
