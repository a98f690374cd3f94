package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"tokolink/internal/domain"
)

// ProductRepositoryPG implements domain.ProductLister using PostgreSQL.
type ProductRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProductRepository constructs a new product repository instance.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepositoryPG {
	return &ProductRepositoryPG{pool: pool}
}

// ListByCategory returns the products of one store category in catalog
// order. That order determines slide order in the generated video.
func (r *ProductRepositoryPG) ListByCategory(ctx context.Context, ownerID, categoryID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, COALESCE(media_urls, '{}'), COALESCE(preview_url, ''), COALESCE(link, '')
FROM products
WHERE owner_id = $1 AND category_id = $2
ORDER BY position ASC, created_at ASC;
`, ownerID, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.MediaURLs, &p.PreviewURL, &p.Link); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
