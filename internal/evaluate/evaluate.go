// Package evaluate decides whether rules match posts and records the
// matches that fire.
//
// Matching is split into a pure decision (Matches) and a stateful
// Evaluator that runs every stored rule against a post and writes the
// results, so the decision logic stays independently testable.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
	"github.com/jdholdren/dealwatch/internal/pattern"
	"github.com/jdholdren/dealwatch/logger"
)

// CompiledRule is a rule with its pattern fields parsed. A nil compiled
// pattern means the field is unconstrained.
type CompiledRule struct {
	Rule dealwatch.Rule

	linkFlair   pattern.Pattern
	productType pattern.Pattern
	description pattern.Pattern
}

// Compile parses a rule's pattern fields once so repeated evaluation
// doesn't re-parse them per post.
func Compile(r dealwatch.Rule) (CompiledRule, error) {
	c := CompiledRule{Rule: r}

	var err error
	if r.LinkFlairPattern != nil {
		if c.linkFlair, err = pattern.Parse(*r.LinkFlairPattern); err != nil {
			return CompiledRule{}, fmt.Errorf("link_flair_pattern: %w", err)
		}
	}
	if r.ProductTypePattern != nil {
		if c.productType, err = pattern.Parse(*r.ProductTypePattern); err != nil {
			return CompiledRule{}, fmt.Errorf("product_type_pattern: %w", err)
		}
	}
	if r.DescriptionPattern != nil {
		if c.description, err = pattern.Parse(*r.DescriptionPattern); err != nil {
			return CompiledRule{}, fmt.Errorf("description_pattern: %w", err)
		}
	}

	return c, nil
}

// MatchesPost checks the post-level constraint: the flair pattern against
// the post's link_flair_text.
func (c CompiledRule) MatchesPost(p dealwatch.Post) bool {
	if c.linkFlair == nil {
		return true
	}

	return pattern.MatchOptional(c.linkFlair, p.LinkFlairText)
}

// MatchesListing checks the listing-level constraints: product type and
// description patterns, then the inclusive price bounds.
func (c CompiledRule) MatchesListing(l dealwatch.Listing) bool {
	if c.productType != nil && !c.productType.Match(l.ProductType) {
		return false
	}
	if c.description != nil && !c.description.Match(l.Description) {
		return false
	}

	price := l.Price()
	if c.Rule.PriceMin != nil && price < *c.Rule.PriceMin {
		return false
	}
	if c.Rule.PriceMax != nil && price > *c.Rule.PriceMax {
		return false
	}

	return true
}

// Matches is the full decision for one (rule, post) pass: the post-level
// constraint must hold and at least one of the post's listings must
// satisfy the listing-level constraints.
func (c CompiledRule) Matches(p dealwatch.Post, listings []dealwatch.Listing) bool {
	if !c.MatchesPost(p) {
		return false
	}
	for _, l := range listings {
		if c.MatchesListing(l) {
			return true
		}
	}

	return false
}

// Matches compiles the rule and evaluates it against a post and its
// listings in one shot.
func Matches(r dealwatch.Rule, p dealwatch.Post, listings []dealwatch.Listing) (bool, error) {
	c, err := Compile(r)
	if err != nil {
		return false, err
	}

	return c.Matches(p, listings), nil
}

type (
	// Evaluator runs every stored rule against posts and records matches.
	Evaluator struct {
		rules   dealwatch.RuleService
		matches dealwatch.MatchService

		// Compiled rules keyed by content fingerprint, so an edited rule
		// recompiles and an unchanged one doesn't.
		cache *lru.Cache[string, CompiledRule]
		now   func() time.Time
	}

	EvaluatorOption func(*Evaluator)
)

const cacheSize = 256

// WithClock overrides the timestamp source for recorded matches.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

// New creates an Evaluator reading rules from rules and recording into
// matches.
func New(rules dealwatch.RuleService, matches dealwatch.MatchService, opts ...EvaluatorOption) (*Evaluator, error) {
	cache, err := lru.New[string, CompiledRule](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating rule cache: %s", err)
	}

	e := &Evaluator{
		rules:   rules,
		matches: matches,
		cache:   cache,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// EvaluatePost runs every stored rule against the post and its listings,
// recording one match per rule that fires. A stored rule whose pattern no
// longer parses is logged and skipped rather than failing the pass.
func (e *Evaluator) EvaluatePost(ctx context.Context, p dealwatch.Post, listings []dealwatch.Listing) ([]dealwatch.Match, error) {
	ctx = logger.Ctx(ctx, slog.String("post_id", p.ID))

	rules, err := e.rules.AllRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading rules: %w", err)
	}

	var recorded []dealwatch.Match
	for _, r := range rules {
		c, err := e.compile(r)
		if err != nil {
			slog.WarnContext(ctx, "skipping rule that no longer compiles", "rule", r.DisplayName(), "error", err)
			continue
		}
		if !c.Matches(p, listings) {
			continue
		}

		m, err := e.matches.RecordMatch(ctx, r.ID, p.ID, e.now().UTC().Format(time.RFC3339))
		if err != nil {
			return recorded, fmt.Errorf("error recording match for rule %q: %w", r.ID, err)
		}
		recorded = append(recorded, m)
	}

	return recorded, nil
}

func (e *Evaluator) compile(r dealwatch.Rule) (CompiledRule, error) {
	key := r.Fingerprint()
	if c, ok := e.cache.Get(key); ok {
		return c, nil
	}

	c, err := Compile(r)
	if err != nil {
		return CompiledRule{}, err
	}
	e.cache.Add(key, c)

	return c, nil
}
