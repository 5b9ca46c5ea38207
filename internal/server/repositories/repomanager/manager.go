package repomanager

import (
	"context"
	"database/sql"

	"github.com/baleriaa/493/internal/dbx"
	"github.com/baleriaa/493/internal/server/repositories/businesses"
	"github.com/baleriaa/493/internal/server/repositories/photos"
	"github.com/baleriaa/493/internal/server/repositories/reviews"
	"github.com/baleriaa/493/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Businesses(db dbx.DBTX) businesses.Repository
	Reviews(db dbx.DBTX) reviews.Repository
	Photos(db dbx.DBTX) photos.Repository
}
