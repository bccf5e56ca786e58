package tracking

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/fairmart/viewtrack/models"
)

// Identity is the resolved deduplication key for a viewer. Tag is a
// fixed-width string safe to use in index columns and redis keys regardless
// of what the client supplied; Kind records the provenance.
type Identity struct {
	Tag  string
	Kind string
}

// ResolveIdentity picks the strongest available identity: authenticated user
// id first, then the client-declared anonymous id, then the session token.
// Pure function; the session middleware guarantees token is never empty, but
// an empty token still resolves (to a shared bucket) rather than failing.
func ResolveIdentity(viewerID *uint, anonymousID, sessionToken string) Identity {
	if viewerID != nil && *viewerID > 0 {
		return Identity{Tag: "u:" + strconv.FormatUint(uint64(*viewerID), 10), Kind: models.IdentityUser}
	}
	if s := strings.TrimSpace(anonymousID); s != "" {
		return Identity{Tag: "a:" + identityDigest(s), Kind: models.IdentityAnon}
	}
	return Identity{Tag: "s:" + identityDigest(strings.TrimSpace(sessionToken)), Kind: models.IdentitySession}
}

// ViewerIDFromTag recovers the numeric user id from an authenticated
// identity tag. Returns false for anonymous and session tags, whose digests
// are one-way.
func ViewerIDFromTag(tag string) (uint, bool) {
	rest, ok := strings.CutPrefix(tag, "u:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// identityDigest normalizes an arbitrary client-supplied string into a short
// fixed-width hex tag. Client ids are untrusted free text and can be
// arbitrarily long; hashing keeps the index key bounded.
func identityDigest(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// viewKindFor derives the event kind from the presence of a listing id.
func viewKindFor(listingID *uint) string {
	if listingID != nil && *listingID > 0 {
		return models.ViewKindListing
	}
	return models.ViewKindProfile
}

// dedupKey is the redis key claiming the trailing dedup window for a pair.
func dedupKey(vendorID uint, identity string) string {
	return fmt.Sprintf("views:dedup:%d:%s", vendorID, identity)
}
