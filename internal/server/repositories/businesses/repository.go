package businesses

import (
	"context"

	"github.com/baleriaa/493/internal/server/models"
)

type Repository interface {
	FindAllByOwner(ctx context.Context, ownerID int64) ([]models.Business, error)
}
