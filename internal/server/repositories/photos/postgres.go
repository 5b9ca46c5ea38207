package photos

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

// FindAllByUser returns the user's photos with ObjectKey set and URL empty.
func (r *PostgresRepository) FindAllByUser(ctx context.Context, userID int64) ([]models.Photo, error) {
	query :=
		`SELECT id, user_id, business_id, COALESCE(caption, ''), object_key
		 FROM photos
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Photo{}
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.UserID, &p.BusinessID, &p.Caption, &p.ObjectKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
