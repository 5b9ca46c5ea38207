package users

import (
	"context"

	"github.com/baleriaa/493/internal/server/models"
)

// Repository is the record store behind the credential store. Lookups
// return common.ErrorNotFound when no row matches; Create returns
// common.ErrDuplicateIdentity on a name or email collision.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}
