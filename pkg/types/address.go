package types

import "strings"

// Address is a flat postal address embedded into order rows. GORM prefixes
// the columns (shipping_, billing_) so both addresses live on the same row.
type Address struct {
	Line1      string  `json:"line1" gorm:"column:line1" validate:"required"`
	Line2      *string `json:"line2,omitempty" gorm:"column:line2"`
	City       string  `json:"city" gorm:"column:city" validate:"required"`
	State      string  `json:"state" gorm:"column:state" validate:"required"`
	PostalCode string  `json:"postal_code" gorm:"column:postal_code" validate:"required"`
	Country    string  `json:"country" gorm:"column:country"`
}

// Normalize trims whitespace and defaults the country to US.
func (a *Address) Normalize() {
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = "US"
	}
	if a.Line2 != nil {
		trimmed := strings.TrimSpace(*a.Line2)
		if trimmed == "" {
			a.Line2 = nil
		} else {
			a.Line2 = &trimmed
		}
	}
}
