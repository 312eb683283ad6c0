package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/monitoring"
)

const adminRole = "admin"

// AdminAuth issues and checks the HS256 bearer tokens that guard the routes
// which change stored state. An empty secret disables the guard.
type AdminAuth struct {
	secret []byte
	logger *monitoring.Logger
}

// NewAdminAuth creates the guard. logger may be nil.
func NewAdminAuth(secret string, logger *monitoring.Logger) *AdminAuth {
	return &AdminAuth{secret: []byte(secret), logger: logger}
}

// Enabled reports whether a secret is configured
func (a *AdminAuth) Enabled() bool {
	return len(a.secret) > 0
}

// GenerateToken signs an admin token for subject that expires after ttl
func (a *AdminAuth) GenerateToken(subject string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", apperrors.NewConfigurationError("no admin token secret configured", nil)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken checks signature, expiry and role, and returns the subject
func (a *AdminAuth) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return "", fmt.Errorf("token does not carry the admin role")
	}
	subject, _ := claims["sub"].(string)
	return subject, nil
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer" token
func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			a.reject(c, "missing bearer token")
			return
		}

		subject, err := a.ValidateToken(strings.TrimSpace(raw))
		if err != nil {
			a.reject(c, err.Error())
			return
		}

		c.Set("admin_subject", subject)
		c.Next()
	}
}

func (a *AdminAuth) reject(c *gin.Context, reason string) {
	if a.logger != nil {
		a.logger.SecurityLogger("admin_token_rejected", c.ClientIP(), c.GetHeader("User-Agent"), map[string]interface{}{
			"path":   c.Request.URL.Path,
			"reason": reason,
		})
	}

	appErr := apperrors.NewUnauthorizedError(reason)
	c.Header("WWW-Authenticate", `Bearer realm="riskscan"`)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
}
