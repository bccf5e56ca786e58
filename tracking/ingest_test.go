package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeListingID(t *testing.T) {
	assert.Nil(t, normalizeListingID(nil))

	zero := uint(0)
	assert.Nil(t, normalizeListingID(&zero))

	id := uint(12)
	got := normalizeListingID(&id)
	assert.NotNil(t, got)
	assert.Equal(t, uint(12), *got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 512))
	assert.Equal(t, "", truncate("", 4))
	assert.Equal(t, strings.Repeat("x", 512), truncate(strings.Repeat("x", 600), 512))
}

func TestRealtimeKey(t *testing.T) {
	assert.Equal(t, "views:rt:3", RealtimeKey(3))
}
