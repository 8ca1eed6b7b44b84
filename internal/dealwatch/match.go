package dealwatch

import "context"

type (
	// Match records that a rule matched a post at some point in time. The
	// table is an audit log: rows are never updated or deleted, and the
	// same (rule, post) pair may appear more than once across evaluation
	// runs unless the store is configured to deduplicate.
	Match struct {
		ID         string `db:"id"`
		RuleID     string `db:"rule_id"`
		PostID     string `db:"post_id"`
		CreatedUTC string `db:"created_utc"`
	}

	MatchService interface {
		// RecordMatch appends a match. Both the rule and the post must
		// already exist.
		RecordMatch(ctx context.Context, ruleID, postID, createdUTC string) (Match, error)
		// PostMatches returns the matches recorded against a post, in
		// insertion order.
		PostMatches(ctx context.Context, postID string) ([]Match, error)
		// RuleMatches returns the matches recorded for a rule, in
		// insertion order.
		RuleMatches(ctx context.Context, ruleID string) ([]Match, error)
	}
)
