package security

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/monitoring"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxUploadBytes    int64         `json:"max_upload_bytes"`
	MaxRequestsPerMin int           `json:"max_requests_per_min"`
	AllowedOrigins    []string      `json:"allowed_origins"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	LimiterIdleTTL    time.Duration `json:"limiter_idle_ttl"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxUploadBytes:    10 << 20,
		MaxRequestsPerMin: 60,
		AllowedOrigins:    []string{"*"},
		TrustedProxies:    []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		RequestTimeout:    30 * time.Second,
		LimiterIdleTTL:    time.Hour,
	}
}

// BlockCounter is notified whenever a client is rate limited
type BlockCounter interface {
	IncrementRateLimitIPBlock()
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SecurityMiddleware bundles the request guards of the analysis API
type SecurityMiddleware struct {
	config SecurityConfig
	logger *monitoring.Logger
	blocks BlockCounter

	mu         sync.Mutex
	ipLimiters map[string]*ipLimiter
}

// NewSecurityMiddleware creates a new security middleware instance. logger
// and blocks may be nil.
func NewSecurityMiddleware(config SecurityConfig, logger *monitoring.Logger, blocks BlockCounter) *SecurityMiddleware {
	return &SecurityMiddleware{
		config:     config,
		logger:     logger,
		blocks:     blocks,
		ipLimiters: make(map[string]*ipLimiter),
	}
}

// Config returns the active configuration
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

// ValidateText rejects uploaded text the analyzers cannot safely tokenize
func (sm *SecurityMiddleware) ValidateText(field, input string) error {
	if int64(len(input)) > sm.config.MaxUploadBytes {
		return apperrors.NewValidationError(field+" exceeds the upload limit",
			"limit_bytes="+strconv.FormatInt(sm.config.MaxUploadBytes, 10))
	}

	if strings.Contains(input, "\x00") {
		return apperrors.NewValidationError(field + " contains NUL bytes")
	}

	if !utf8.ValidString(input) {
		return apperrors.NewIOError(field+" is not valid UTF-8", nil)
	}

	return nil
}

func (sm *SecurityMiddleware) limiterFor(ip string) *rate.Limiter {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	entry, exists := sm.ipLimiters[ip]
	if !exists {
		rps := rate.Limit(float64(sm.config.MaxRequestsPerMin) / 60.0)
		// Allow a burst of half the per-minute budget, but never fewer than 5
		burst := sm.config.MaxRequestsPerMin / 2
		if burst < 5 {
			burst = 5
		}
		entry = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
		sm.ipLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter
}

// RateLimitByIP implements per-IP rate limiting. A non-positive
// MaxRequestsPerMin disables it.
func (sm *SecurityMiddleware) RateLimitByIP(c *gin.Context) {
	if sm.config.MaxRequestsPerMin <= 0 {
		c.Next()
		return
	}

	clientIP := c.ClientIP()
	if sm.limiterFor(clientIP).Allow() {
		c.Next()
		return
	}

	if sm.blocks != nil {
		sm.blocks.IncrementRateLimitIPBlock()
	}
	if sm.logger != nil {
		sm.logger.SecurityLogger("rate_limited", clientIP, c.GetHeader("User-Agent"), map[string]interface{}{
			"path": c.Request.URL.Path,
		})
	}

	appErr := apperrors.NewRateLimitError("60")
	c.Header("Retry-After", "60")
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
}

// LimitBody caps the request body at MaxUploadBytes
func (sm *SecurityMiddleware) LimitBody(c *gin.Context) {
	if c.Request.Body != nil && sm.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sm.config.MaxUploadBytes)
	}
	c.Next()
}

// IsBodyTooLarge reports whether err came from a body over the LimitBody cap
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// ValidateContentType validates request content type
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	allowedTypes := []string{
		"application/json",
		"multipart/form-data",
	}

	if contentType != "" {
		for _, allowed := range allowedTypes {
			if strings.Contains(contentType, allowed) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "unsupported content type",
		})
		return
	}

	c.Next()
}

// RequestTimeout enforces request timeout
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}

// CORS returns the CORS middleware for the configured origins
func (sm *SecurityMiddleware) CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"Content-Disposition", "X-Run-ID", "X-Cache"}
	cfg.MaxAge = 12 * time.Hour

	if len(sm.config.AllowedOrigins) == 0 || containsString(sm.config.AllowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = sm.config.AllowedOrigins
	}

	return cors.New(cfg)
}

func containsString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

// Cleanup evicts idle per-IP limiters until ctx is done
func (sm *SecurityMiddleware) Cleanup(ctx context.Context) {
	if sm.config.LimiterIdleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(sm.config.LimiterIdleTTL)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.cleanupOldLimiters(time.Now())
			}
		}
	}()
}

// cleanupOldLimiters removes limiters not used within LimiterIdleTTL of now
func (sm *SecurityMiddleware) cleanupOldLimiters(now time.Time) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for ip, entry := range sm.ipLimiters {
		if now.Sub(entry.lastSeen) > sm.config.LimiterIdleTTL {
			delete(sm.ipLimiters, ip)
			removed++
		}
	}
	return removed
}

func (sm *SecurityMiddleware) limiterCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.ipLimiters)
}
