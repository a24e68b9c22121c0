package address

import (
	"fmt"
	"strings"
)

// Shipping is the delivery address captured at checkout. Orders store it
// denormalized through String.
type Shipping struct {
	FullName    string `json:"fullName"`
	AddressLine string `json:"addressLine"`
	City        string `json:"city"`
	Country     string `json:"country"`
	PhoneNumber string `json:"phoneNumber"`
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("shipping address %s is required", e.Field)
}

func (s Shipping) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", s.FullName},
		{"addressLine", s.AddressLine},
		{"city", s.City},
		{"country", s.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}

func (s Shipping) String() string {
	out := strings.Join([]string{
		strings.TrimSpace(s.FullName),
		strings.TrimSpace(s.AddressLine),
		strings.TrimSpace(s.City),
		strings.TrimSpace(s.Country),
	}, ", ")
	if phone := strings.TrimSpace(s.PhoneNumber); phone != "" {
		out += " (Phone: " + phone + ")"
	}
	return out
}
