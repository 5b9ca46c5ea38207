package reviews

import (
	"context"

	"github.com/baleriaa/493/internal/server/models"
)

type Repository interface {
	FindAllByUser(ctx context.Context, userID int64) ([]models.Review, error)
}
