package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
	"github.com/jdholdren/dealwatch/internal/pattern"
)

// PutRule inserts or overwrites a rule. Rules are mutable configuration,
// unlike posts and listings, so the last writer wins. Pattern fields are
// parsed up front: a rule that can't compile never reaches the table.
func (r *Repo) PutRule(ctx context.Context, rule dealwatch.Rule) (dealwatch.Rule, error) {
	if rule.PriceMin != nil && rule.PriceMax != nil && *rule.PriceMin > *rule.PriceMax {
		return dealwatch.Rule{}, fmt.Errorf("price_min %v above price_max %v: %w",
			*rule.PriceMin, *rule.PriceMax, dealwatch.ErrInvalid)
	}
	for field, src := range map[string]*string{
		"link_flair_pattern":   rule.LinkFlairPattern,
		"product_type_pattern": rule.ProductTypePattern,
		"description_pattern":  rule.DescriptionPattern,
	} {
		if src == nil {
			continue
		}
		if _, err := pattern.Parse(*src); err != nil {
			return dealwatch.Rule{}, fmt.Errorf("%s %q: %s: %w", field, *src, err, dealwatch.ErrInvalid)
		}
	}

	if rule.ID == "" {
		rule.ID = rule.Fingerprint()
	}

	const q = `INSERT INTO rules (id, name, link_flair_pattern, product_type_pattern, description_pattern, price_min, price_max)
	VALUES (:id, :name, :link_flair_pattern, :product_type_pattern, :description_pattern, :price_min, :price_max)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		link_flair_pattern = excluded.link_flair_pattern,
		product_type_pattern = excluded.product_type_pattern,
		description_pattern = excluded.description_pattern,
		price_min = excluded.price_min,
		price_max = excluded.price_max;`
	if _, err := r.db.NamedExecContext(ctx, q, rule); err != nil {
		return dealwatch.Rule{}, fmt.Errorf("error upserting rule: %s", err)
	}

	return rule, nil
}

func (r *Repo) Rule(ctx context.Context, id string) (dealwatch.Rule, error) {
	const q = `SELECT * FROM rules WHERE id = ?;`

	var rule dealwatch.Rule
	err := r.db.GetContext(ctx, &rule, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return dealwatch.Rule{}, dealwatch.ErrNotFound
	}
	if err != nil {
		return dealwatch.Rule{}, fmt.Errorf("error fetching rule: %s", err)
	}

	return rule, nil
}

func (r *Repo) DeleteRule(ctx context.Context, id string) error {
	const q = `DELETE FROM rules WHERE id = ?;`

	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("error deleting rule: %s", err)
	}

	return nil
}

// AllRules retrieves _all_ rules from the database.
func (r *Repo) AllRules(ctx context.Context) ([]dealwatch.Rule, error) {
	const q = `SELECT * FROM rules;`

	var rules []dealwatch.Rule
	if err := r.db.SelectContext(ctx, &rules, q); err != nil {
		return nil, fmt.Errorf("error selecting all rules: %s", err)
	}

	return rules, nil
}
