package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(cm *CompressionMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(cm.Handler())
	big := strings.Repeat("1,0.0693,0.5308,Low\n", 200)
	r.GET("/big.csv", func(c *gin.Context) {
		c.Header("X-Run-ID", "abc")
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(big))
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/missing", func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": strings.Repeat("x", 2048)})
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/debug/pprof/heap", func(c *gin.Context) {
		c.String(http.StatusOK, big)
	})
	return r
}

func get(r http.Handler, path string, gzipOK bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if gzipOK {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCompression_LargeResponse(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	w := get(newRouter(cm), "/big.csv", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "abc", w.Header().Get("X-Run-ID"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("1,0.0693,0.5308,Low\n", 200), string(body))

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Less(t, stats["compression_ratio"].(float64), 0.5)
}

func TestCompression_PassThrough(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newRouter(cm)

	tests := []struct {
		name   string
		path   string
		gzipOK bool
		status int
	}{
		{"client without gzip", "/big.csv", false, http.StatusOK},
		{"below min size", "/small", true, http.StatusOK},
		{"excluded prefix", "/debug/pprof/heap", true, http.StatusOK},
		{"empty body", "/empty", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.path, tt.gzipOK)
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
		})
	}

	w := get(r, "/small", true)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCompression_KeepsErrorStatus(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	w := get(newRouter(cm), "/missing", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestNewCompressionMiddleware_ClampsLevel(t *testing.T) {
	cfg := DefaultCompressionConfig()
	cfg.CompressionLevel = 42
	cm := NewCompressionMiddleware(cfg)
	assert.Equal(t, gzip.DefaultCompression, cm.config.CompressionLevel)
}
