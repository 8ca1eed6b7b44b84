package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
)

const listingNamespace = "-lst"

// InsertListing stores a parsed listing for an existing post. The parent
// check and the insert share a transaction so a concurrent writer can't
// leave an orphaned row behind.
func (r *Repo) InsertListing(ctx context.Context, l dealwatch.Listing) (dealwatch.Listing, error) {
	if l.PostID == "" {
		return dealwatch.Listing{}, fmt.Errorf("listing post_id is required: %w", dealwatch.ErrInvalid)
	}
	if l.PriceDollars < 0 {
		return dealwatch.Listing{}, fmt.Errorf("price_dollars %d is negative: %w", l.PriceDollars, dealwatch.ErrInvalid)
	}
	if l.PriceCents < 0 || l.PriceCents > 99 {
		return dealwatch.Listing{}, fmt.Errorf("price_cents %d outside [0,99]: %w", l.PriceCents, dealwatch.ErrInvalid)
	}

	l.ID = fmt.Sprintf("%s%s", uuid.NewString(), listingNamespace)

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE id = ?;`, l.PostID); err != nil {
			return fmt.Errorf("error checking post exists: %s", err)
		}
		if n == 0 {
			return fmt.Errorf("post %q: %w", l.PostID, dealwatch.ErrForeignKey)
		}

		const q = `INSERT INTO parsed_listings (id, post_id, product_type, description, price_dollars, price_cents, extra_details)
		VALUES (:id, :post_id, :product_type, :description, :price_dollars, :price_cents, :extra_details);`
		if _, err := tx.NamedExecContext(ctx, q, l); err != nil {
			return fmt.Errorf("error inserting listing: %s", err)
		}

		return nil
	})
	if err != nil {
		return dealwatch.Listing{}, err
	}

	return l, nil
}

// PostListings returns every listing parsed from a post, oldest first.
func (r *Repo) PostListings(ctx context.Context, postID string) ([]dealwatch.Listing, error) {
	const q = `SELECT * FROM parsed_listings WHERE post_id = ? ORDER BY rowid;`

	var listings []dealwatch.Listing
	if err := r.db.SelectContext(ctx, &listings, q, postID); err != nil {
		return nil, fmt.Errorf("error fetching listings: %s", err)
	}

	return listings, nil
}
