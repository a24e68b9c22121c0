package address

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipping_Validate(t *testing.T) {
	full := Shipping{FullName: "Sara Khan", AddressLine: "12 Mall Road", City: "Lahore", Country: "Pakistan"}
	require.NoError(t, full.Validate())

	missing := full
	missing.City = "  "
	err := missing.Validate()
	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, "city", mf.Field)
}

func TestShipping_String(t *testing.T) {
	s := Shipping{FullName: "Sara Khan", AddressLine: "12 Mall Road", City: "Lahore", Country: "Pakistan"}
	assert.Equal(t, "Sara Khan, 12 Mall Road, Lahore, Pakistan", s.String())

	s.PhoneNumber = "0300-1234567"
	assert.Equal(t, "Sara Khan, 12 Mall Road, Lahore, Pakistan (Phone: 0300-1234567)", s.String())
}
