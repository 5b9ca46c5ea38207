// Package services contains server-side business logic shared by the HTTP
// and gRPC front doors: registration and login over the credential store,
// user lookup and listing of a user's owned resources.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/models"
)

// TokenIssuer mints a bearer token for an authenticated principal.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a bearer token
// - GetUser: public fields of a user
type UserService struct {
	creds  *CredentialStore
	tokens TokenIssuer
}

func NewUserService(creds *CredentialStore, tokens TokenIssuer) *UserService {
	return &UserService{creds: creds, tokens: tokens}
}

// Register validates in and creates the user. Creating an admin requires an
// admin principal in ctx.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	if in.Admin {
		caller, ok := auth.PrincipalFromContext(ctx)
		if !ok || !caller.Admin {
			return nil, fmt.Errorf("%w: only admins may create admins", common.ErrForbidden)
		}
	}

	user := &models.User{Name: in.Name, Email: in.Email, Admin: in.Admin}
	created, err := s.creds.Create(ctx, user, in.Password)
	if err != nil {
		return nil, err
	}

	pub := created.Public()
	return &pub, nil
}

// Login verifies the credential and returns a signed bearer token.
func (s *UserService) Login(ctx context.Context, identifier, password string) (string, error) {
	if identifier == "" || password == "" {
		return "", fmt.Errorf("%w: identifier and password are required", common.ErrValidation)
	}

	user, err := s.creds.Authenticate(ctx, identifier, password)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(auth.Principal{UserID: user.ID, Admin: user.Admin})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return token, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.PublicUser, error) {
	user, err := s.creds.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	in := RegisterInput{Name: name, Email: email, Password: password, Admin: true}
	if err := validateRegistration(in); err != nil {
		return false, err
	}
	return s.creds.EnsureUser(ctx, &models.User{Name: name, Email: email, Admin: true}, password)
}

func validateRegistration(in RegisterInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	case strings.TrimSpace(in.Email) == "":
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	case !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: email is invalid", common.ErrValidation)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}
