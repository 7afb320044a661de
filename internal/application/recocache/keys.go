package recocache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

const keyPrefix = "recs:"

// normalizeTags trims, drops empties, dedupes, and sorts, so any ordering
// of an equivalent tag set hits the same cache entry.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// cacheKey keeps the user id in the clear (prefix invalidation keys off
// it) and hashes the rest of the request shape.
func cacheKey(userID, context string, tags []string, limit int) string {
	uid := userID
	if uid == "" {
		uid = "anon"
	}
	raw := fmt.Sprintf("ctx=%s|tags=%s|limit=%d", context, strings.Join(tags, ","), limit)
	sum := sha256.Sum256([]byte(raw))
	return keyPrefix + uid + ":" + hex.EncodeToString(sum[:])
}

func userKeyPrefix(userID string) string {
	if userID == "" {
		return keyPrefix
	}
	return keyPrefix + userID + ":"
}
