package security

import (
	"github.com/gin-gonic/gin"
)

// apiPolicy forbids every resource type; the API only serves JSON and CSV.
const apiPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// CSPMiddleware sets a deny-all Content Security Policy. When reportURI is
// non-empty a report-only copy is sent as well.
func CSPMiddleware(reportURI string) gin.HandlerFunc {
	policy := buildCSPPolicy(reportURI)
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", apiPolicy)
		if reportURI != "" {
			c.Header("Content-Security-Policy-Report-Only", policy)
		}
		c.Next()
	}
}

func buildCSPPolicy(reportURI string) string {
	if reportURI == "" {
		return apiPolicy
	}
	return apiPolicy + "; report-uri " + reportURI
}
