package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
)

// InsertPost stores a scraped post. Posts are append-only and keyed by the
// source platform's id, so re-observing one is a no-op; the bool reports
// whether a new row was written.
func (r *Repo) InsertPost(ctx context.Context, p dealwatch.Post) (bool, error) {
	if p.ID == "" {
		return false, fmt.Errorf("post id is required: %w", dealwatch.ErrInvalid)
	}
	if p.Title == "" {
		return false, fmt.Errorf("post title is required: %w", dealwatch.ErrInvalid)
	}

	const q = `INSERT INTO posts (id, created_utc, downs, ups, link_flair_text, title, url)
	VALUES (:id, :created_utc, :downs, :ups, :link_flair_text, :title, :url)
	ON CONFLICT(id) DO NOTHING;`
	res, err := r.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return false, fmt.Errorf("error inserting post: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking insert result: %s", err)
	}

	return n > 0, nil
}

func (r *Repo) Post(ctx context.Context, id string) (dealwatch.Post, error) {
	const q = `SELECT * FROM posts WHERE id = ?;`

	var p dealwatch.Post
	err := r.db.GetContext(ctx, &p, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return dealwatch.Post{}, dealwatch.ErrNotFound
	}
	if err != nil {
		return dealwatch.Post{}, fmt.Errorf("error fetching post: %s", err)
	}

	return p, nil
}

// Posts lists posts matching the filter, ordered by created_utc. The
// Unparsed and Unevaluated flags pick out posts the parser or evaluator
// hasn't gotten to yet.
func (r *Repo) Posts(ctx context.Context, filter dealwatch.PostFilter) ([]dealwatch.Post, error) {
	q := sq.Select("*").From("posts").OrderBy("created_utc", "id")
	if filter.LinkFlairText != nil {
		q = q.Where(sq.Eq{"link_flair_text": *filter.LinkFlairText})
	}
	if filter.CreatedSince != "" {
		q = q.Where(sq.GtOrEq{"created_utc": filter.CreatedSince})
	}
	if filter.CreatedUntil != "" {
		q = q.Where(sq.LtOrEq{"created_utc": filter.CreatedUntil})
	}
	if filter.Unparsed {
		q = q.Where("NOT EXISTS (SELECT 1 FROM parsed_listings WHERE parsed_listings.post_id = posts.id)")
	}
	if filter.Unevaluated {
		q = q.Where("NOT EXISTS (SELECT 1 FROM rule_matches WHERE rule_matches.post_id = posts.id)")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var posts []dealwatch.Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching posts: %s", err)
	}

	return posts, nil
}
