package harvest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := harvest.Errorf(harvest.EFETCH, "HTTP %d for %s", 404, "https://example.com")

	assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	assert.Equal(t, "HTTP 404 for https://example.com", harvest.ErrorMessage(err))
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, harvest.ErrorCode(nil))
		assert.Empty(t, harvest.ErrorMessage(nil))
	})

	t.Run("wrapped application error keeps its code", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("item 3: %w", harvest.Errorf(harvest.EBLOCKED, "challenge"))
		assert.Equal(t, harvest.EBLOCKED, harvest.ErrorCode(err))
		assert.Equal(t, "challenge", harvest.ErrorMessage(err))
	})

	t.Run("context cancellation maps to canceled", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, harvest.ECANCELED, harvest.ErrorCode(context.Canceled))
	})

	t.Run("deadline maps to fetch", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	})

	t.Run("other errors are internal", func(t *testing.T) {
		t.Parallel()
		err := errors.New("boom")
		assert.Equal(t, harvest.EINTERNAL, harvest.ErrorCode(err))
		assert.Equal(t, "boom", harvest.ErrorMessage(err))
	})
}

func TestDetectChallenge(t *testing.T) {
	t.Parallel()

	t.Run("accepts ordinary page", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, harvest.DetectChallenge("<html><body><p class=\"vname\">카고</p></body></html>", 10))
	})

	for _, body := range []string{
		"<title>Just a moment...</title> Checking your browser before accessing",
		"Cloudflare security challenge",
		"Ray ID: 8a1b2c3d",
		"<meta name=\"cf-ray\">",
	} {
		t.Run("rejects "+body, func(t *testing.T) {
			t.Parallel()
			err := harvest.DetectChallenge(body, 0)
			assert.Equal(t, harvest.EBLOCKED, harvest.ErrorCode(err))
		})
	}

	t.Run("rejects short body", func(t *testing.T) {
		t.Parallel()
		err := harvest.DetectChallenge("<html></html>", harvest.DefaultMinBodyLength)
		assert.Equal(t, harvest.EBLOCKED, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), "too short")
	})
}

func TestAcceptLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		locale string
		want   string
	}{
		{harvest.DefaultLocale, "ko-KR,ko;q=0.9,en;q=0.8"},
		{"ko", "ko,en;q=0.8"},
		{"en-US", "en-US,en;q=0.9"},
		{"en", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, harvest.AcceptLanguage(tt.locale))
		})
	}
}
