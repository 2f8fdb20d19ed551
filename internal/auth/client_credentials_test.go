package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/franciscosanchezn/gin-recipe-api/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenRouter(t *testing.T) (*gin.Engine, uint) {
	t.Helper()
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "kitchen", models.RoleUser)
	createClient(t, db, "test_client_id", "test_secret", owner.ID)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", NewOAuthService(db, testSecret, time.Hour).HandleToken)
	return router, owner.ID
}

func postToken(router *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	router, ownerID := tokenRouter(t)

	// the plain secret is verified against the stored bcrypt hash
	w := postToken(router, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"test_client_id"},
		"client_secret": {"test_secret"},
		"scope":         {"read"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Bearer", response["token_type"])
	assert.NotEmpty(t, response["expires_in"])

	access, ok := response["access_token"].(string)
	require.True(t, ok)
	claims, err := ParseToken(access, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, ownerID, claims.UserID)
}

func TestClientCredentialsInvalidSecret(t *testing.T) {
	router, _ := tokenRouter(t)

	w := postToken(router, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"test_client_id"},
		"client_secret": {"wrong_secret"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_client")
}

func TestUnsupportedGrantType(t *testing.T) {
	router, _ := tokenRouter(t)

	w := postToken(router, url.Values{
		"grant_type": {"password"},
		"username":   {"kitchen"},
		"password":   {"password123"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response models.OAuth2Error
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, models.ErrUnsupportedGrantType, response.Error)
}
