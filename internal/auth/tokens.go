package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenPair is the response of a username and password login
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs login tokens and tracks revoked refresh tokens
type TokenIssuer struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(db *gorm.DB, secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		db:         db,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) sign(user *models.User, typ string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := userClaims(user, typ)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Issue returns a new access and refresh token for user
func (t *TokenIssuer) Issue(user *models.User) (*TokenPair, error) {
	access, err := t.sign(user, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := t.sign(user, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// parseRefresh verifies a refresh token and checks it was not revoked
func (t *TokenIssuer) parseRefresh(ctx context.Context, refresh string) (*Claims, error) {
	claims, err := ParseToken(refresh, t.secret)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}

	var revoked int64
	if err := t.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("jti = ?", claims.ID).Count(&revoked).Error; err != nil {
		return nil, err
	}
	if revoked > 0 {
		return nil, fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token. The role
// is read again so demotions take effect.
func (t *TokenIssuer) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := t.parseRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	var user models.User
	if err := t.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return "", err
	}
	return t.sign(&user, TokenTypeAccess, t.accessTTL)
}

// Revoke blacklists a refresh token until it expires
func (t *TokenIssuer) Revoke(ctx context.Context, refresh string) error {
	claims, err := t.parseRefresh(ctx, refresh)
	if err != nil {
		return err
	}

	entry := models.RevokedToken{JTI: claims.ID, ExpiresAt: claims.ExpiresAt.Time}
	err = t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	log.WithField("user_id", claims.UserID).Info("Refresh token revoked")
	return nil
}

// PurgeRevoked drops revocation entries of tokens that expired anyway
func (t *TokenIssuer) PurgeRevoked(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).Where("expires_at < ?", t.now()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
