package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
)

const matchNamespace = "-mtch"

// RecordMatch appends a match between a rule and a post. Both parents are
// verified inside the transaction; a dangling reference fails the whole
// write and leaves the store unchanged. With dedupe enabled, an existing
// row for the pair is returned instead of a new one.
func (r *Repo) RecordMatch(ctx context.Context, ruleID, postID, createdUTC string) (dealwatch.Match, error) {
	if ruleID == "" || postID == "" {
		return dealwatch.Match{}, fmt.Errorf("rule_id and post_id are required: %w", dealwatch.ErrInvalid)
	}

	m := dealwatch.Match{
		ID:         fmt.Sprintf("%s%s", uuid.NewString(), matchNamespace),
		RuleID:     ruleID,
		PostID:     postID,
		CreatedUTC: createdUTC,
	}

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM rules WHERE id = ?;`, ruleID); err != nil {
			return fmt.Errorf("error checking rule exists: %s", err)
		}
		if n == 0 {
			return fmt.Errorf("rule %q: %w", ruleID, dealwatch.ErrForeignKey)
		}
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE id = ?;`, postID); err != nil {
			return fmt.Errorf("error checking post exists: %s", err)
		}
		if n == 0 {
			return fmt.Errorf("post %q: %w", postID, dealwatch.ErrForeignKey)
		}

		if r.dedupeMatches {
			var existing dealwatch.Match
			err := tx.GetContext(ctx, &existing,
				`SELECT * FROM rule_matches WHERE rule_id = ? AND post_id = ? ORDER BY rowid LIMIT 1;`,
				ruleID, postID)
			if err == nil {
				m = existing
				return nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("error checking existing match: %s", err)
			}
		}

		const q = `INSERT INTO rule_matches (id, rule_id, post_id, created_utc)
		VALUES (:id, :rule_id, :post_id, :created_utc);`
		if _, err := tx.NamedExecContext(ctx, q, m); err != nil {
			return fmt.Errorf("error inserting match: %s", err)
		}

		return nil
	})
	if err != nil {
		return dealwatch.Match{}, err
	}

	return m, nil
}

// PostMatches returns the matches recorded against a post, oldest first.
func (r *Repo) PostMatches(ctx context.Context, postID string) ([]dealwatch.Match, error) {
	const q = `SELECT * FROM rule_matches WHERE post_id = ? ORDER BY rowid;`

	var matches []dealwatch.Match
	if err := r.db.SelectContext(ctx, &matches, q, postID); err != nil {
		return nil, fmt.Errorf("error fetching matches for post: %s", err)
	}

	return matches, nil
}

// RuleMatches returns the matches recorded for a rule, oldest first.
func (r *Repo) RuleMatches(ctx context.Context, ruleID string) ([]dealwatch.Match, error) {
	const q = `SELECT * FROM rule_matches WHERE rule_id = ? ORDER BY rowid;`

	var matches []dealwatch.Match
	if err := r.db.SelectContext(ctx, &matches, q, ruleID); err != nil {
		return nil, fmt.Errorf("error fetching matches for rule: %s", err)
	}

	return matches, nil
}
