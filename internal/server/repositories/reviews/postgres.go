package reviews

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

func (r *PostgresRepository) FindAllByUser(ctx context.Context, userID int64) ([]models.Review, error) {
	query :=
		`SELECT id, user_id, business_id, dollars, stars, COALESCE(review, '')
		 FROM reviews
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.BusinessID, &rv.Dollars, &rv.Stars, &rv.Review); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
