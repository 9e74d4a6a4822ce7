package kirara

import (
	"time"

	"github.com/rs/zerolog"
)

// logRequest logs an outgoing request at debug level.
func logRequest(logger zerolog.Logger, method, url string, bodySize int, requestID string) {
	event := logger.Debug().
		Str("method", method).
		Str("url", url).
		Int("body_size", bodySize)
	if requestID != "" {
		event = event.Str("request_id", requestID)
	}
	event.Msg("API request")
}

// logResponse logs a received response at debug level.
func logResponse(logger zerolog.Logger, method, url string, statusCode int, duration time.Duration, bodySize int) {
	logger.Debug().
		Str("method", method).
		Str("url", url).
		Int("status", statusCode).
		Dur("duration", duration).
		Int("body_size", bodySize).
		Msg("API response")
}

// logFailure logs a failed exchange at debug level.
func logFailure(logger zerolog.Logger, method, url string, duration time.Duration, err error) {
	logger.Debug().
		Str("method", method).
		Str("url", url).
		Dur("duration", duration).
		Err(err).
		Msg("API request failed")
}
