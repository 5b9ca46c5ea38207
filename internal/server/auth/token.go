// Package auth is the authentication and authorization core: bearer token
// issuance and validation, password hashing, the per-request principal and
// the resource ownership guard.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/baleriaa/493/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed claim set carried by a bearer token. Subject holds the
// decimal user id.
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin,omitempty"`
}

// TokenService issues and validates HS256 bearer tokens with a process-wide
// secret. It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

func NewTokenService(secretKey string, validity time.Duration) (*TokenService, error) {
	if secretKey == "" {
		return nil, errors.New("token secret is required")
	}
	if validity <= 0 {
		return nil, errors.New("token validity must be > 0")
	}
	return &TokenService{
		secret:   []byte(secretKey),
		validity: validity,
		now:      time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a token for p that expires validity after now.
func (s *TokenService) Issue(p Principal) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Admin: p.Admin,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks tokenString and returns the principal it was issued for.
//
// Errors are one of common.ErrMalformedToken, common.ErrTokenExpired or
// common.ErrInvalidSignature. Expiry is judged from the claims before the
// signature is checked, so an expired token reports as expired whatever its
// signature.
func (s *TokenService) Validate(tokenString string) (Principal, error) {
	claims := &Claims{}
	if _, _, err := s.parser.ParseUnverified(tokenString, claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return Principal{}, fmt.Errorf("%w: no expiration", common.ErrMalformedToken)
	}
	if s.now().After(claims.ExpiresAt.Time) {
		return Principal{}, common.ErrTokenExpired
	}

	claims = &Claims{}
	if _, err := s.parser.ParseWithClaims(tokenString, claims, s.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Principal{}, fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
		}
		return Principal{}, fmt.Errorf("%w: %v", common.ErrInvalidSignature, err)
	}

	userID, err := common.ParseUserID(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: subject: %v", common.ErrMalformedToken, err)
	}

	return Principal{UserID: userID, Admin: claims.Admin}, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	return s.secret, nil
}
