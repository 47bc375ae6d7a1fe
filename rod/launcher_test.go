package rod

import (
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestNewLauncher(t *testing.T) {
	t.Parallel()

	t.Run("launches in the listing locale with the given user agent", func(t *testing.T) {
		t.Parallel()

		l := newLauncher(harvest.DefaultLocale, harvest.DefaultUserAgent)

		assert.Equal(t, "ko-KR", l.Get("lang"))
		assert.Equal(t, harvest.DefaultUserAgent, l.Get("user-agent"))
		assert.Equal(t, "AutomationControlled", l.Get("disable-blink-features"))
		assert.True(t, l.Has("headless"))
	})

	t.Run("keeps Chrome defaults when locale and user agent are empty", func(t *testing.T) {
		t.Parallel()

		l := newLauncher("", "")

		assert.False(t, l.Has("lang"))
		assert.False(t, l.Has("user-agent"))
	})
}
