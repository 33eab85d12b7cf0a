package vaultserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsMiddleware builds a CORS handler based on configuration. CORS is
// disabled by default since the vault is a server-to-server API; enable
// only if a browser-based console needs direct API access.
func corsMiddleware(enabled bool, allowOriginsCSV string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOriginsCSV)
	if len(origins) == 0 {
		logger.Warn("cors enabled but no valid origins configured")
		return nil
	}

	logger.Info("cors enabled", slog.Int("origin_count", len(origins)))

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"POST"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

func parseOrigins(originsCSV string) []string {
	if originsCSV == "" {
		return nil
	}
	parts := strings.Split(originsCSV, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
