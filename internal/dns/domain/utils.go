package domain

import "fmt"

// GenerateCacheKey returns a consistent cache key derived from a DNS
// name and type, case-folding the name per the wire format's
// case-insensitive comparison rule.
func GenerateCacheKey(name Name, t RRType) string {
	return fmt.Sprintf("%s:%d", name.CacheKey(), t)
}
