package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/baleriaa/493/internal/common"
	"github.com/baleriaa/493/internal/filex"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn is returned when no token is stored.
var ErrNotLoggedIn = errors.New("not logged in, run 'login' first")

type tokenFile struct {
	path string
}

func (f *tokenFile) Save(token string) error {
	return filex.WritePrivate(f.path, []byte(token+"\n"))
}

func (f *tokenFile) Load() (string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

func (f *tokenFile) Remove() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// subjectOf reads the user id from the token's sub claim. The signature is
// not checked here; the server does that on every request.
func subjectOf(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, fmt.Errorf("stored token is unreadable: %w", err)
	}
	id, err := common.ParseUserID(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("stored token has no user id: %w", err)
	}
	return id, nil
}
