package dealwatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestFingerprint(t *testing.T) {
	r := Rule{
		Name:               ptr("nvidia under a grand"),
		DescriptionPattern: ptr("nvidia"),
		PriceMax:           ptr(1000.0),
	}

	assert.Equal(t, r.Fingerprint(), r.Fingerprint(), "fingerprint must be stable")

	edited := r
	edited.PriceMax = ptr(900.0)
	assert.NotEqual(t, r.Fingerprint(), edited.Fingerprint())

	// An unset field and an empty one are different rules.
	unset := Rule{}
	empty := Rule{Name: ptr("")}
	assert.NotEqual(t, unset.Fingerprint(), empty.Fingerprint())
}

func TestListingPrice(t *testing.T) {
	l := Listing{PriceDollars: 799, PriceCents: 99}
	assert.InDelta(t, 799.99, l.Price(), 0.0001)
}
