package auth

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret-key-32-characters"

// createClient stores a client owned by owner with a bcrypt hashed secret
func createClient(t *testing.T, db *gorm.DB, id, secret string, owner uint) *models.OAuthClient {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ID:         id,
		Secret:     string(hashed),
		Domain:     "http://localhost",
		Scopes:     "read,write",
		UserID:     owner,
		GrantTypes: "client_credentials",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func TestOAuthServerInitialization(t *testing.T) {
	db := testutil.NewTestDB(t)

	oauthService := NewOAuthService(db, testSecret, time.Hour)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestClientTokenActsAsOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "kitchen", models.RoleStaff)
	createClient(t, db, "test_client", "test_secret", owner.ID)

	oauthService := NewOAuthService(db, testSecret, time.Hour)
	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials,
		&oauth2.TokenGenerateRequest{
			ClientID:     "test_client",
			ClientSecret: "test_secret",
			Scope:        "read",
		})
	require.NoError(t, err)
	require.NotEmpty(t, tokenInfo.GetAccess())
	assert.Empty(t, tokenInfo.GetRefresh())

	claims, err := ParseToken(tokenInfo.GetAccess(), []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, owner.ID, claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, "read", claims.Scope)
	assert.Contains(t, []string(claims.Audience), "test_client")
	assert.NotEmpty(t, claims.ID)

	// the issued token is persisted by the token store
	var stored int64
	require.NoError(t, db.Model(&models.OAuthToken{}).Where("client_id = ?", "test_client").Count(&stored).Error)
	assert.Equal(t, int64(1), stored)
}

func TestClientTokenRejectsWrongSecret(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "kitchen", models.RoleUser)
	createClient(t, db, "test_client", "test_secret", owner.ID)

	oauthService := NewOAuthService(db, testSecret, time.Hour)
	_, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials,
		&oauth2.TokenGenerateRequest{ClientID: "test_client", ClientSecret: "wrong"})
	assert.Error(t, err)
}

func TestClientTokenRequiresOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	createClient(t, db, "orphan_client", "test_secret", 0)

	oauthService := NewOAuthService(db, testSecret, time.Hour)
	_, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials,
		&oauth2.TokenGenerateRequest{ClientID: "orphan_client", ClientSecret: "test_secret"})
	assert.Error(t, err)
}

func TestClientStoreLookup(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "kitchen", models.RoleUser)
	createClient(t, db, "integration_test_client", "secret", owner.ID)

	clientStore := NewGormClientStore(db)
	ctx := context.Background()

	client, err := clientStore.GetByID(ctx, "integration_test_client")
	require.NoError(t, err)
	assert.Equal(t, "integration_test_client", client.GetID())
	assert.Equal(t, "1", client.GetUserID())

	verifier, ok := client.(oauth2.ClientPasswordVerifier)
	require.True(t, ok)
	assert.True(t, verifier.VerifyPassword("secret"))
	assert.False(t, verifier.VerifyPassword("nope"))

	_, err = clientStore.GetByID(ctx, "missing")
	assert.Error(t, err)
}

func TestTokenStorePurgeExpired(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.OAuthToken{ClientID: "c", AccessToken: "old", ExpiresAt: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.OAuthToken{ClientID: "c", AccessToken: "new", ExpiresAt: time.Now().Add(time.Hour)}).Error)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	info, err := store.GetByAccess(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "c", info.GetClientID())

	_, err = store.GetByAccess(ctx, "old")
	assert.Error(t, err)
}
