package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lextutor-backend/fetcher"
)

func TestNoResultMarkerIsRetryable(t *testing.T) {
	assert.True(t, fetcher.Retryable(errNoResultMarker))

	// The timeout kind must survive the worker boundary for the fetcher to rerun the session.
	err := fetcher.ErrorResponse(errNoResultMarker).Err()
	assert.ErrorIs(t, err, fetcher.ErrTimeout)
	assert.True(t, fetcher.Retryable(err))
}

func TestDefaultCaseLawConfig(t *testing.T) {
	cfg := DefaultCaseLawConfig()
	assert.Equal(t, fetcher.DefaultMaxResults, cfg.MaxResults)
	assert.Positive(t, cfg.WaitTimeout)
}
