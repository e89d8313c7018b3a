package security

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is used when a TTL string does not match the compact format.
const DefaultTTL = 7 * 24 * time.Hour

var ttlPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

var ttlUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseTTL converts "<n><unit>" with unit one of s, m, h, d into a duration.
// Anything else, including zero and values that overflow, yields DefaultTTL.
func ParseTTL(s string) time.Duration {
	m := ttlPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return DefaultTTL
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return DefaultTTL
	}
	unit := ttlUnits[m[2]]
	if n > int64(1<<63-1)/int64(unit) {
		return DefaultTTL
	}
	return time.Duration(n) * unit
}
