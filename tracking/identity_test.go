package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairmart/viewtrack/models"
)

func TestResolveIdentityPrecedence(t *testing.T) {
	uid := uint(42)

	// Authenticated user wins over everything.
	id := ResolveIdentity(&uid, "device-abc", "session-xyz")
	assert.Equal(t, "u:42", id.Tag)
	assert.Equal(t, models.IdentityUser, id.Kind)

	// Anonymous device id beats the session token.
	id = ResolveIdentity(nil, "device-abc", "session-xyz")
	assert.Equal(t, models.IdentityAnon, id.Kind)
	assert.True(t, strings.HasPrefix(id.Tag, "a:"))

	// Session token is the fallback.
	id = ResolveIdentity(nil, "", "session-xyz")
	assert.Equal(t, models.IdentitySession, id.Kind)
	assert.True(t, strings.HasPrefix(id.Tag, "s:"))
}

func TestResolveIdentityIgnoresBlankInputs(t *testing.T) {
	zero := uint(0)

	id := ResolveIdentity(&zero, "  ", "session-xyz")
	assert.Equal(t, models.IdentitySession, id.Kind)

	// Same token always produces the same tag.
	again := ResolveIdentity(nil, "", "session-xyz")
	assert.Equal(t, id.Tag, again.Tag)
}

func TestIdentityDigestStableAndBounded(t *testing.T) {
	a := identityDigest("some-device-id")
	b := identityDigest("some-device-id")
	c := identityDigest("other-device-id")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// 16 digest bytes hex-encoded.
	assert.Len(t, a, 32)

	// Arbitrarily long client input still yields a fixed-width tag.
	long := identityDigest(strings.Repeat("x", 10_000))
	assert.Len(t, long, 32)
}

func TestViewerIDFromTag(t *testing.T) {
	id, ok := ViewerIDFromTag("u:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, tag := range []string{"a:deadbeef", "s:deadbeef", "u:", "u:0", "u:abc", "42"} {
		_, ok := ViewerIDFromTag(tag)
		assert.False(t, ok, "tag %q should not resolve", tag)
	}
}

func TestViewKindFor(t *testing.T) {
	listing := uint(7)
	zero := uint(0)

	assert.Equal(t, models.ViewKindListing, viewKindFor(&listing))
	assert.Equal(t, models.ViewKindProfile, viewKindFor(&zero))
	assert.Equal(t, models.ViewKindProfile, viewKindFor(nil))
}

func TestDedupKeyFormat(t *testing.T) {
	assert.Equal(t, "views:dedup:9:u:42", dedupKey(9, "u:42"))
}
