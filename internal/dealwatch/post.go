package dealwatch

import "context"

type (
	// Post is one externally scraped marketplace post. The id comes from
	// the source platform, not from us, and rows are append-only: a post is
	// never updated or deleted once stored.
	Post struct {
		ID            string  `db:"id"`
		CreatedUTC    string  `db:"created_utc"`
		Downs         *int64  `db:"downs"`
		Ups           *int64  `db:"ups"`
		LinkFlairText *string `db:"link_flair_text"`
		Title         string  `db:"title"`
		URL           *string `db:"url"`
	}

	// PostFilter narrows a Posts call. Zero-valued fields are ignored.
	PostFilter struct {
		// Exact link_flair_text to match.
		LinkFlairText *string
		// Bounds on created_utc, compared as text since the source format
		// is opaque to the store.
		CreatedSince string
		CreatedUntil string
		// Only posts without any parsed listing.
		Unparsed bool
		// Only posts without any recorded rule match.
		Unevaluated bool
	}

	PostService interface {
		// InsertPost stores a post if its id has not been seen before.
		// Re-observing a post is expected during scraping, so a duplicate
		// id is a no-op; the bool reports whether a row was written.
		InsertPost(ctx context.Context, p Post) (bool, error)
		Post(ctx context.Context, id string) (Post, error)
		Posts(ctx context.Context, filter PostFilter) ([]Post, error)
	}
)
