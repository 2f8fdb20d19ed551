package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientJWTAccessGenerate issues access tokens for OAuth clients. The token
// acts as the user that owns the client, with that user's current role.
type ClientJWTAccessGenerate struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	DB           *gorm.DB
}

func NewClientJWTAccessGenerate(key []byte, method jwt.SigningMethod, db *gorm.DB) *ClientJWTAccessGenerate {
	return &ClientJWTAccessGenerate{
		SignedKey:    key,
		SignedMethod: method,
		DB:           db,
	}
}

// Token implements oauth2.AccessGenerate
func (g *ClientJWTAccessGenerate) Token(ctx context.Context, data *oauth2.GenerateBasic, isGenRefresh bool) (string, string, error) {
	// client_credentials requests carry no user, the client's owner is used
	userID := data.UserID
	if userID == "" {
		userID = data.Client.GetUserID()
	}
	if userID == "" {
		return "", "", fmt.Errorf("cannot generate token: client %s has no owner", data.Client.GetID())
	}

	user, err := g.lookupUser(ctx, userID)
	if err != nil {
		return "", "", err
	}

	createdAt := data.TokenInfo.GetAccessCreateAt()
	claims := userClaims(user, TokenTypeAccess)
	claims.Scope = data.TokenInfo.GetScope()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Audience:  jwt.ClaimStrings{data.Client.GetID()},
		IssuedAt:  jwt.NewNumericDate(createdAt),
		ExpiresAt: jwt.NewNumericDate(createdAt.Add(data.TokenInfo.GetAccessExpiresIn())),
	}

	access, err := jwt.NewWithClaims(g.SignedMethod, claims).SignedString(g.SignedKey)
	if err != nil {
		return "", "", err
	}

	refresh := ""
	if isGenRefresh {
		refreshClaims := userClaims(user, TokenTypeRefresh)
		refreshClaims.RegisteredClaims = jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(data.TokenInfo.GetRefreshCreateAt()),
			ExpiresAt: jwt.NewNumericDate(data.TokenInfo.GetRefreshCreateAt().Add(data.TokenInfo.GetRefreshExpiresIn())),
		}
		refresh, err = jwt.NewWithClaims(g.SignedMethod, refreshClaims).SignedString(g.SignedKey)
		if err != nil {
			return "", "", err
		}
	}

	return access, refresh, nil
}

func (g *ClientJWTAccessGenerate) lookupUser(ctx context.Context, userIDStr string) (*models.User, error) {
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format: %w", err)
	}

	var user models.User
	if err := g.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %d not found", userID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	return &user, nil
}
