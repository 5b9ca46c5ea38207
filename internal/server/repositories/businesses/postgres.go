package businesses

import (
	"context"
	"fmt"

	"github.com/baleriaa/493/internal/dbx"
	"github.com/baleriaa/493/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindAllByOwner returns every business owned by ownerID ordered by id. An
// owner without businesses yields an empty, non-nil slice.
func (r *PostgresRepository) FindAllByOwner(ctx context.Context, ownerID int64) ([]models.Business, error) {
	query :=
		`SELECT id, owner_id, name, address, city, state, zip, phone, category, subcategory,
		        COALESCE(website, ''), COALESCE(email, '')
		 FROM businesses
		 WHERE owner_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Business{}
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Address, &b.City, &b.State, &b.Zip,
			&b.Phone, &b.Category, &b.Subcategory, &b.Website, &b.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
