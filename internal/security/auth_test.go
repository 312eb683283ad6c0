package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuth_GenerateAndValidate(t *testing.T) {
	auth := NewAdminAuth("s3cret", nil)
	require.True(t, auth.Enabled())

	token, err := auth.GenerateToken("ops", time.Hour)
	require.NoError(t, err)

	subject, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", subject)
}

func TestAdminAuth_ValidateRejects(t *testing.T) {
	auth := NewAdminAuth("s3cret", nil)

	otherSecret, err := NewAdminAuth("other", nil).GenerateToken("ops", time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("ops", -time.Minute)
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "ops",
		"role": "admin",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "ops",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", otherSecret},
		{"expired", expired},
		{"missing role", noRole},
		{"missing expiry", noExpiry},
		{"alg none", unsigned},
		{"garbage", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestAdminAuth_GenerateWithoutSecret(t *testing.T) {
	_, err := NewAdminAuth("", nil).GenerateToken("ops", time.Hour)
	assert.Error(t, err)
}

func TestAdminAuth_RequireAdmin(t *testing.T) {
	auth := NewAdminAuth("s3cret", nil)
	valid, err := auth.GenerateToken("ops", time.Hour)
	require.NoError(t, err)
	forged, err := NewAdminAuth("guess", nil).GenerateToken("ops", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		secret         string
		header         string
		expectedStatus int
	}{
		{"valid token", "s3cret", "Bearer " + valid, http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong scheme", "s3cret", "Basic " + valid, http.StatusUnauthorized},
		{"wrong secret", "s3cret", "Bearer " + forged, http.StatusUnauthorized},
		{"guard disabled", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.PUT("/profiles/:name", NewAdminAuth(tt.secret, nil).RequireAdmin(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPut, "/profiles/strict", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "unauthorized", body["category"])
			}
		})
	}
}
