package env

import (
	"os"
	"strings"
)

// Prefix namespaces the variables read by every agrofarm binary.
const Prefix = "AGROFARM_"

// Get returns AGROFARM_<key> when set, then the bare key, then fallback.
// Only used for settings read before config.Load runs.
func Get(key, fallback string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), Prefix)
	if key == "" {
		return fallback
	}
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
