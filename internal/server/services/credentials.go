package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/dbx"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/models"
	"github.com/baleriaa/493/internal/server/repositories/repomanager"
)

// CredentialStore is the only component that sees password hashes. Users
// returned from it have PasswordHash cleared.
type CredentialStore struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	hasher       auth.Hasher
	dummies      map[string]string
	storeTimeout time.Duration
}

// NewCredentialStore builds the store and precomputes the hashes that pad
// Authenticate: one per algorithm the hasher accepts.
func NewCredentialStore(db *sql.DB, m repomanager.RepositoryManager, hasher auth.Hasher, storeTimeout time.Duration) (*CredentialStore, error) {
	filler, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrHashing, err)
	}

	dummies := make(map[string]string)
	if mh, ok := hasher.(auth.MultiHasher); ok {
		for _, alg := range mh.Algorithms() {
			if dummies[alg], err = mh.HashWith(alg, filler); err != nil {
				return nil, err
			}
		}
	} else if dummies[""], err = hasher.Hash(filler); err != nil {
		return nil, err
	}

	return &CredentialStore{
		db:           db,
		repomanager:  m,
		hasher:       hasher,
		dummies:      dummies,
		storeTimeout: storeTimeout,
	}, nil
}

// Authenticate returns the user identified by name or email when plaintext
// matches the stored hash. Unknown identifiers and wrong passwords both yield
// common.ErrorUnauthorized after the same amount of hashing work: every
// path runs one verification per algorithm the hasher accepts, whichever
// algorithm the user's stored hash was made with.
func (s *CredentialStore) Authenticate(ctx context.Context, identifier, plaintext string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, storeError(err)
		}
		if err := s.padVerify(plaintext, nil); err != nil {
			return nil, err
		}
		return nil, common.ErrorUnauthorized
	}

	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	alg := s.algorithmOf(user.PasswordHash)
	if err := s.padVerify(plaintext, &alg); err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	user.PasswordHash = ""
	return user, nil
}

// padVerify verifies plaintext against every dummy hash except the one of
// the algorithm named by skip. A nil skip runs them all.
func (s *CredentialStore) padVerify(plaintext string, skip *string) error {
	for alg, dummy := range s.dummies {
		if skip != nil && alg == *skip {
			continue
		}
		if _, err := s.hasher.Verify(plaintext, dummy); err != nil {
			return err
		}
	}
	return nil
}

func (s *CredentialStore) algorithmOf(stored string) string {
	if mh, ok := s.hasher.(auth.MultiHasher); ok {
		return mh.AlgorithmOf(stored)
	}
	return ""
}

// Create hashes plaintext and inserts user. A name or email collision is
// common.ErrDuplicateIdentity.
func (s *CredentialStore) Create(ctx context.Context, user *models.User, plaintext string) (*models.User, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, storeError(err)
	}
	created.PasswordHash = ""
	return created, nil
}

// Lookup returns the user with the given id.
func (s *CredentialStore) Lookup(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// EnsureUser creates user unless a user with the same name exists. The check
// and the insert share one transaction. It reports whether a row was created.
func (s *CredentialStore) EnsureUser(ctx context.Context, user *models.User, plaintext string) (bool, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return false, err
	}
	user.PasswordHash = hash

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created := false
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		exists, err := repo.ExistsByName(ctx, user.Name)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := repo.Create(ctx, user); err != nil {
			return err
		}
		created = true
		return nil
	})
	user.PasswordHash = ""
	if err != nil {
		return false, storeError(err)
	}
	return created, nil
}

// inTx runs fn in a transaction. The in-memory store has no *sql.DB and its
// repositories ignore the handle, so fn then runs directly.
func (s *CredentialStore) inTx(ctx context.Context, fn func(context.Context, dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func (s *CredentialStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// storeError passes domain errors through and folds everything else,
// deadlines included, into common.ErrStoreUnavailable.
func storeError(err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrDuplicateIdentity) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}
