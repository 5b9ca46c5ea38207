package services

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baleriaa/493/internal/dbx"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/config"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/baleriaa/493/internal/server/repositories/repomanager"
	"github.com/baleriaa/493/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// countingHasher records how many verifications ran.
type countingHasher struct {
	auth.Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(plaintext, stored string) (bool, error) {
	h.verifies.Add(1)
	return h.Hasher.Verify(plaintext, stored)
}

// countingMultiHasher records verifications per algorithm.
type countingMultiHasher struct {
	auth.MultiHasher
	mu       sync.Mutex
	verifies map[string]int
}

func (h *countingMultiHasher) Verify(plaintext, stored string) (bool, error) {
	h.mu.Lock()
	h.verifies[h.AlgorithmOf(stored)]++
	h.mu.Unlock()
	return h.MultiHasher.Verify(plaintext, stored)
}

// take returns the counts so far and starts over.
func (h *countingMultiHasher) take() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.verifies
	h.verifies = map[string]int{}
	return out
}

func newCountingMultiHasher(t *testing.T, algorithm string) *countingMultiHasher {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.PasswordAlgorithm = algorithm
	cfg.BcryptCost = bcrypt.MinCost
	cfg.Argon2Memory = 1024
	cfg.Argon2Threads = 1

	h, err := auth.NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return &countingMultiHasher{MultiHasher: h.(auth.MultiHasher), verifies: map[string]int{}}
}

func newCountingHasher() *countingHasher {
	return &countingHasher{Hasher: auth.NewBcryptHasher(bcrypt.MinCost)}
}

type fakeUsersRepo struct {
	err   error
	block bool
}

func (f *fakeUsersRepo) wait(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return nil, f.wait(ctx)
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, f.wait(ctx)
}

func (f *fakeUsersRepo) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return nil, f.wait(ctx)
}

func (f *fakeUsersRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return false, f.wait(ctx)
}

// failingRepoManager serves fakeUsersRepo and the in-memory manager's
// repositories for everything else.
type failingRepoManager struct {
	*repomanager.InMemoryRepositoryManager
	users *fakeUsersRepo
}

func (m *failingRepoManager) Users(dbx.DBTX) users.Repository { return m.users }

func newCredentialStore(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, h auth.Hasher) *CredentialStore {
	t.Helper()
	s, err := NewCredentialStore(db, rm, h, time.Second)
	if err != nil {
		t.Fatalf("NewCredentialStore error: %v", err)
	}
	return s
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("k", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	return ts
}
