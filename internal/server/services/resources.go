package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/baleriaa/493/internal/logging"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/baleriaa/493/internal/server/repositories/repomanager"
)

// ResourceService lists the businesses, reviews and photos owned by a user.
// Callers are expected to have run the ownership guard already.
type ResourceService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	signer       URLSigner
	storeTimeout time.Duration
	logger       logging.Logger
}

// NewResourceService builds the service. signer may be nil, in which case
// photos are returned without download URLs.
func NewResourceService(db *sql.DB, m repomanager.RepositoryManager, signer URLSigner, storeTimeout time.Duration, logger logging.Logger) *ResourceService {
	return &ResourceService{
		db:           db,
		repomanager:  m,
		signer:       signer,
		storeTimeout: storeTimeout,
		logger:       logger.With("module", "resources"),
	}
}

func (s *ResourceService) ListBusinesses(ctx context.Context, ownerID int64) ([]models.Business, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, err := s.repomanager.Businesses(s.db).FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

func (s *ResourceService) ListReviews(ctx context.Context, userID int64) ([]models.Review, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	list, err := s.repomanager.Reviews(s.db).FindAllByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

// ListPhotos returns the user's photos. A photo whose URL cannot be signed is
// still returned, without URL.
func (s *ResourceService) ListPhotos(ctx context.Context, userID int64) ([]models.Photo, error) {
	dbCtx, cancel := s.withTimeout(ctx)
	list, err := s.repomanager.Photos(s.db).FindAllByUser(dbCtx, userID)
	cancel()
	if err != nil {
		return nil, storeError(err)
	}

	if s.signer == nil {
		return list, nil
	}
	for i := range list {
		url, err := s.signer.PresignGet(ctx, list[i].ObjectKey)
		if err != nil {
			s.logger.Warn(ctx, "photo url not signed", "photo_id", list[i].ID, "error", err)
			continue
		}
		list[i].URL = url
	}
	return list, nil
}

func (s *ResourceService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
