package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
// Pre-compiled at initialization for optimal performance (<1μs per operation).
var pathPatterns = []*PathPattern{
	// WebSub per-feed callback routes
	{Pattern: regexp.MustCompile(`^/microsub/websub/\d+$`), Template: "/microsub/websub/:feedId"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths with IDs (e.g., /articles/123) to template format (e.g., /articles/:id).
// Static paths and search endpoints remain unchanged.
//
// Performance: <1μs per operation (pre-compiled regex patterns)
//
// Examples:
//
//	NormalizePath("/microsub/websub/123")   // "/microsub/websub/:feedId"
//	NormalizePath("/microsub/websub/456")   // "/microsub/websub/:feedId"
//	NormalizePath("/microsub/timeline")     // "/microsub/timeline" (unchanged)
//	NormalizePath("/health")                // "/health" (unchanged)
//	NormalizePath("/metrics")                // "/metrics" (unchanged)
//	NormalizePath("/unknown/path/123")      // "/unknown/path/123" (no match, return original)
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/microsub/websub/123?hub.mode=subscribe") // "/microsub/websub/:feedId"
//	NormalizePath("/microsub/websub/123/")                   // "/microsub/websub/:feedId"
func NormalizePath(path string) string {
	// Strip query parameters if present
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	// Try to match against known patterns
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	// No match found, return original path
	// This is safe - static paths like /health, /metrics, /auth/token
	// and search endpoints like /articles/search will pass through unchanged
	return path
}

// GetExpectedCardinality returns the expected number of unique path labels
// after normalization. This is useful for capacity planning and monitoring.
func GetExpectedCardinality() int {
	templateCount := len(pathPatterns)
	staticCount := 10 // /health, /ready, /live, /metrics, /microsub/{channels,timeline,follow,...}
	return templateCount + staticCount
}
