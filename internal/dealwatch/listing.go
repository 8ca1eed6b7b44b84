package dealwatch

import "context"

type (
	// Listing is one structured interpretation of a post's title. A post
	// can accumulate several of these over time, e.g. after a re-parse
	// with a better extractor, so rows are immutable: reprocessing inserts
	// a new row rather than updating an old one.
	Listing struct {
		ID           string  `db:"id"`
		PostID       string  `db:"post_id"`
		ProductType  string  `db:"product_type"`
		Description  string  `db:"description"`
		PriceDollars int64   `db:"price_dollars"`
		PriceCents   int64   `db:"price_cents"`
		ExtraDetails *string `db:"extra_details"`
	}

	ListingService interface {
		// InsertListing stores a new listing, assigning its id. The parent
		// post must already exist.
		InsertListing(ctx context.Context, l Listing) (Listing, error)
		// PostListings returns every listing for a post in insertion
		// order. Zero listings is a normal outcome, not an error.
		PostListings(ctx context.Context, postID string) ([]Listing, error)
	}
)

// Price is the listing's monetary value in dollars.
func (l Listing) Price() float64 {
	return float64(l.PriceDollars) + float64(l.PriceCents)/100
}
