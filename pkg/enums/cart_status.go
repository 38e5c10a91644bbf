// Package enums holds the string-backed status and role types shared by the
// models, services, and API layer. Every type parses strictly; unknown values
// never round-trip into the database.
package enums

import "fmt"

// CartStatus tracks whether a cart record is live, converted into an order,
// or swept as abandoned. A shopper has at most one active cart; converted
// and abandoned carts are terminal.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

var cartStatuses = map[CartStatus]struct{}{
	CartStatusActive:    {},
	CartStatusConverted: {},
	CartStatusAbandoned: {},
}

func (c CartStatus) String() string { return string(c) }

func (c CartStatus) IsValid() bool {
	_, ok := cartStatuses[c]
	return ok
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	status := CartStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid cart status %q", value)
	}
	return status, nil
}
