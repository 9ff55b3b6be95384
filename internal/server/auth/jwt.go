// Package auth implements the stateless credential primitives: password
// hashing, one-time code generation and access/refresh token handling.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind discriminates access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the signed claim set: subject (user id), issued-at, expiry,
// a unique token id and the kind discriminator.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// GenerateToken signs a token of the given kind for userID with HS256.
func GenerateToken(userID string, kind TokenKind, secretKey []byte, validityDuration time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Kind: kind,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString against secretKey and checks that it
// carries the expected kind.
//
// Errors:
//   - common.ErrTokenExpired when past expiry;
//   - common.ErrTokenMalformed when the string is not a JWT;
//   - common.ErrInvalidToken for a bad signature, wrong kind or missing subject.
func ParseToken(tokenString string, kind TokenKind, secretKey []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, common.ErrTokenMalformed
		default:
			return nil, common.ErrInvalidToken
		}
	}

	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// TokenManager mints and verifies access and refresh tokens. The two kinds
// use separate secrets and validity windows.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecretKey),
		refreshSecret: []byte(cfg.RefreshSecretKey),
		accessTTL:     cfg.AccessTokenValidityDuration,
		refreshTTL:    cfg.RefreshTokenValidityDuration,
		now:           time.Now,
	}
}

func (m *TokenManager) MintAccessToken(userID string) (string, error) {
	return GenerateToken(userID, KindAccess, m.accessSecret, m.accessTTL, m.now())
}

func (m *TokenManager) MintRefreshToken(userID string) (string, error) {
	return GenerateToken(userID, KindRefresh, m.refreshSecret, m.refreshTTL, m.now())
}

func (m *TokenManager) VerifyAccessToken(token string) (*Claims, error) {
	return ParseToken(token, KindAccess, m.accessSecret, m.now)
}

func (m *TokenManager) VerifyRefreshToken(token string) (*Claims, error) {
	return ParseToken(token, KindRefresh, m.refreshSecret, m.now)
}

// RefreshTTL is the refresh token lifetime; transports use it as cookie max-age.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}
