package cache

import (
	"fmt"
	"hash/fnv"

	"movie-hub/infrastructure/utils"
)

// Fingerprint hashes (normalized query, limit) into the cache key shared
// by both tiers.
func Fingerprint(query string, limit int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", utils.NormalizeQuery(query), limit)
	return fmt.Sprintf("%016x", h.Sum64())
}
