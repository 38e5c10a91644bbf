package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure, on
// the named constraint when given. Matching on message text keeps it working
// for both postgres and the sqlite test databases; order-number retries and
// the one-active-cart-per-owner fallback depend on it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
