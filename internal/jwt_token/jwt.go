// Package jwttoken issues and validates the HS256 access tokens the
// registry accepts. A token carries either an account id or the root
// flag; the auth middleware turns the claims into a caller origin.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"locregistry/internal/platform/middleware"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

// Claims is the JWT claim set of registry access tokens.
type Claims struct {
	Account string `json:"account,omitempty"`
	Root    bool   `json:"root,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken issues a signed token for the given account.
func (s *JWTService) GenerateAccessToken(account id.AccountID, expiresIn time.Duration) (string, error) {
	return s.sign(Claims{
		Account:          account.String(),
		RegisteredClaims: s.registered(expiresIn),
	})
}

// GenerateRootToken issues a token carrying the root flag. Root tokens
// are minted by migration tooling only.
func (s *JWTService) GenerateRootToken(expiresIn time.Duration) (string, error) {
	return s.sign(Claims{
		Root:             true,
		RegisteredClaims: s.registered(expiresIn),
	})
}

func (s *JWTService) registered(expiresIn time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    s.issuer,
		Audience:  []string{s.audience},
		ID:        uuid.NewString(),
	}
}

func (s *JWTService) sign(claims Claims) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token, returning the claims the
// auth middleware consumes.
func (s *JWTService) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if !claims.Root && claims.Account == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no caller")
	}

	return &middleware.TokenClaims{Account: claims.Account, Root: claims.Root}, nil
}
