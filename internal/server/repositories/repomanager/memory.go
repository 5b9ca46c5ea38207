package repomanager

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/dbx"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/baleriaa/493/internal/server/repositories/businesses"
	"github.com/baleriaa/493/internal/server/repositories/photos"
	"github.com/baleriaa/493/internal/server/repositories/reviews"
	"github.com/baleriaa/493/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps all records in process memory. It backs
// the "memory" database DSN and the transport tests. The DBTX passed to the
// factories is ignored, so transactions are not isolated.
type InMemoryRepositoryManager struct {
	mu         sync.RWMutex
	nextUserID int64
	users      []models.User
	businesses []models.Business
	reviews    []models.Review
	photos     []models.Photo
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{nextUserID: 1}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository           { return memUsers{m} }
func (m *InMemoryRepositoryManager) Businesses(dbx.DBTX) businesses.Repository { return memBusinesses{m} }
func (m *InMemoryRepositoryManager) Reviews(dbx.DBTX) reviews.Repository       { return memReviews{m} }
func (m *InMemoryRepositoryManager) Photos(dbx.DBTX) photos.Repository         { return memPhotos{m} }

// AddBusiness, AddReview and AddPhoto seed owned resources.
func (m *InMemoryRepositoryManager) AddBusiness(b models.Business) models.Business {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = int64(len(m.businesses) + 1)
	m.businesses = append(m.businesses, b)
	return b
}

func (m *InMemoryRepositoryManager) AddReview(r models.Review) models.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.reviews) + 1)
	m.reviews = append(m.reviews, r)
	return r
}

func (m *InMemoryRepositoryManager) AddPhoto(p models.Photo) models.Photo {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.photos) + 1)
	m.photos = append(m.photos, p)
	return p
}

type memUsers struct{ m *InMemoryRepositoryManager }

func (r memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if u.Name == user.Name || u.Email == user.Email {
			return nil, common.ErrDuplicateIdentity
		}
	}
	user.ID = r.m.nextUserID
	user.CreatedAt = time.Now().UTC()
	r.m.nextUserID++
	r.m.users = append(r.m.users, *user)
	return user, nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var byEmail *models.User
	for _, u := range r.m.users {
		if u.Name == identifier {
			return &u, nil
		}
		if u.Email == identifier && byEmail == nil {
			found := u
			byEmail = &found
		}
	}
	if byEmail != nil {
		return byEmail, nil
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) ExistsByName(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type memBusinesses struct{ m *InMemoryRepositoryManager }

func (r memBusinesses) FindAllByOwner(ctx context.Context, ownerID int64) ([]models.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []models.Business{}
	for _, b := range r.m.businesses {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memReviews struct{ m *InMemoryRepositoryManager }

func (r memReviews) FindAllByUser(ctx context.Context, userID int64) ([]models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []models.Review{}
	for _, rv := range r.m.reviews {
		if rv.UserID == userID {
			out = append(out, rv)
		}
	}
	return out, nil
}

type memPhotos struct{ m *InMemoryRepositoryManager }

func (r memPhotos) FindAllByUser(ctx context.Context, userID int64) ([]models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []models.Photo{}
	for _, p := range r.m.photos {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}
