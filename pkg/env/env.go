// Package env holds process-environment lookups that happen before the
// typed config is loaded, such as the logger's output format switch.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of the environment variable, or fallback
// when unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
