package dealwatch

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
)

type (
	// Rule is a user-authored filter over posts and their listings. The
	// pattern fields hold keyword expressions (see internal/pattern); a nil
	// pattern places no constraint on that field. Unlike posts and
	// listings, rules are current-intent configuration and may be edited
	// in place.
	Rule struct {
		ID                 string   `db:"id"`
		Name               *string  `db:"name"`
		LinkFlairPattern   *string  `db:"link_flair_pattern"`
		ProductTypePattern *string  `db:"product_type_pattern"`
		DescriptionPattern *string  `db:"description_pattern"`
		PriceMin           *float64 `db:"price_min"`
		PriceMax           *float64 `db:"price_max"`
	}

	RuleService interface {
		// PutRule inserts or overwrites by id, filling an empty id with
		// the rule's content fingerprint. Concurrent writers on the same
		// id are serialized by the store, last writer wins. The stored
		// rule is returned.
		PutRule(ctx context.Context, r Rule) (Rule, error)
		Rule(ctx context.Context, id string) (Rule, error)
		DeleteRule(ctx context.Context, id string) error
		AllRules(ctx context.Context) ([]Rule, error)
	}
)

// DisplayName returns the rule's name, or a placeholder for unnamed rules.
func (r Rule) DisplayName() string {
	if r.Name != nil {
		return *r.Name
	}
	return "(unnamed rule)"
}

// Fingerprint hashes the rule's contents into a stable id. Rules loaded
// from configuration don't carry ids of their own, so the store addresses
// them by content: editing a rule produces a new row, and re-loading an
// unchanged one lands on the same row.
func (r Rule) Fingerprint() string {
	h := sha256.New()
	// A presence byte ahead of each field keeps an unset field distinct
	// from an empty one.
	for _, f := range []*string{r.Name, r.LinkFlairPattern, r.ProductTypePattern, r.DescriptionPattern} {
		if f != nil {
			h.Write([]byte{1})
			h.Write([]byte(*f))
		}
		h.Write([]byte{0})
	}
	for _, b := range []*float64{r.PriceMin, r.PriceMax} {
		if b != nil {
			h.Write([]byte{1})
			h.Write([]byte(strconv.FormatFloat(*b, 'g', -1, 64)))
		}
		h.Write([]byte{0})
	}

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
