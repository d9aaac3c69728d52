package helpers

import (
	"time"

	"github.com/yigit/cms/internal/pkg/logger"
)

// ParseDuration parses a configured duration, falling back to def when the
// string is empty or malformed.
func ParseDuration(durationStr string, def time.Duration) time.Duration {
	if durationStr == "" {
		return def
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		logger.Warn().Err(err).Str("durationStr", durationStr).Dur("default", def).Msg("Failed to parse duration string, using default")
		return def
	}
	return duration
}
