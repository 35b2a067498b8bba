package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/models"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const revokedKeyPrefix = "revoked:"

type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return uint(id), nil
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService signs and verifies HS256 tokens and tracks revocations in
// the token_blocklist table, fronted by a cache.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	cache      cache.Cache
	now        func() time.Time
}

func NewTokenService(cfg config.JWTConfig, c cache.Cache) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		cache:      c,
		now:        time.Now,
	}
}

func (s *TokenService) IssueTokens(userID uint) (*TokenPair, error) {
	access, err := s.issue(userID, AccessToken, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(userID, RefreshToken, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) IssueAccessToken(userID uint) (string, error) {
	return s.issue(userID, AccessToken, s.accessTTL)
}

func (s *TokenService) issue(userID uint, typ TokenType, ttl time.Duration) (string, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate jti: %w", err)
	}

	now := s.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry and requires the token to be
// of the wanted type. It does not consult the blocklist.
func (s *TokenService) Parse(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, want, claims.Type)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	return claims, nil
}

// Revoke blocklists the token's jti. Revoking twice is not an error.
func (s *TokenService) Revoke(db *gorm.DB, claims *Claims) error {
	entry := models.TokenBlocklist{JTI: claims.ID}
	if err := db.Create(&entry).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("revoke token: %w", err)
	}

	ttl := s.refreshTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl > 0 {
		s.remember(db.Statement.Context, claims.ID, ttl)
	}
	return nil
}

func (s *TokenService) IsRevoked(db *gorm.DB, jti string) (bool, error) {
	ctx := db.Statement.Context

	if s.cache != nil {
		var revoked bool
		if err := s.cache.Get(ctx, revokedKeyPrefix+jti, &revoked); err == nil && revoked {
			return true, nil
		}
	}

	var count int64
	if err := db.Model(&models.TokenBlocklist{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check token blocklist: %w", err)
	}
	if count == 0 {
		return false, nil
	}

	s.remember(ctx, jti, s.refreshTTL)
	return true, nil
}

// Only positive answers are cached; a cached "not revoked" could outlive a
// logout handled by another process.
func (s *TokenService) remember(ctx context.Context, jti string, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, revokedKeyPrefix+jti, true, ttl); err != nil {
		log.Warn().Err(err).Str("jti", jti).Msg("failed to cache token revocation")
	}
}
