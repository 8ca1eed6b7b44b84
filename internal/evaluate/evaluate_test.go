package evaluate_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
	"github.com/jdholdren/dealwatch/internal/evaluate"
	"github.com/jdholdren/dealwatch/internal/migrations"
	"github.com/jdholdren/dealwatch/internal/sqlite"
)

func ptr[T any](v T) *T { return &v }

func gpuListing(dollars, cents int64) dealwatch.Listing {
	return dealwatch.Listing{
		PostID:       "p1",
		ProductType:  "GPU",
		Description:  "ASUS NVIDIA GeForce RTX 4070 Ti",
		PriceDollars: dollars,
		PriceCents:   cents,
	}
}

func TestMatches(t *testing.T) {
	post := dealwatch.Post{
		ID:            "p1",
		Title:         "[GPU] ASUS NVIDIA GeForce RTX 4070 Ti $799.99",
		LinkFlairText: ptr("GPU"),
	}

	tests := []struct {
		name     string
		rule     dealwatch.Rule
		post     dealwatch.Post
		listings []dealwatch.Listing
		want     bool
	}{
		{
			name:     "product type and description",
			rule:     dealwatch.Rule{ProductTypePattern: ptr("gpu"), DescriptionPattern: ptr("nvidia && rtx")},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     true,
		},
		{
			name:     "description misses",
			rule:     dealwatch.Rule{DescriptionPattern: ptr("amd")},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     false,
		},
		{
			name:     "price inside bounds",
			rule:     dealwatch.Rule{PriceMin: ptr(100.0), PriceMax: ptr(1000.0)},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     true,
		},
		{
			name:     "bounds are inclusive",
			rule:     dealwatch.Rule{PriceMin: ptr(799.99), PriceMax: ptr(799.99)},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     true,
		},
		{
			name:     "price above max",
			rule:     dealwatch.Rule{PriceMax: ptr(500.0)},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     false,
		},
		{
			name:     "any listing may satisfy the rule",
			rule:     dealwatch.Rule{PriceMax: ptr(500.0)},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99), gpuListing(450, 0)},
			want:     true,
		},
		{
			name:     "no listings means no match",
			rule:     dealwatch.Rule{},
			post:     post,
			listings: nil,
			want:     false,
		},
		{
			name:     "flair pattern gates the post",
			rule:     dealwatch.Rule{LinkFlairPattern: ptr("cpu")},
			post:     post,
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     false,
		},
		{
			name:     "missing flair fails a positive pattern",
			rule:     dealwatch.Rule{LinkFlairPattern: ptr("gpu")},
			post:     dealwatch.Post{ID: "p2", Title: "no flair"},
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     false,
		},
		{
			name:     "missing flair passes a negated pattern",
			rule:     dealwatch.Rule{LinkFlairPattern: ptr("!expired")},
			post:     dealwatch.Post{ID: "p2", Title: "no flair"},
			listings: []dealwatch.Listing{gpuListing(799, 99)},
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluate.Matches(tt.rule, tt.post, tt.listings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_BadPattern(t *testing.T) {
	_, err := evaluate.Compile(dealwatch.Rule{DescriptionPattern: ptr("nvidia &&")})
	assert.Error(t, err)
}

func newTestRepo(t *testing.T, opts ...sqlite.Option) *sqlite.Repo {
	t.Helper()

	dbx, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "dealwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	require.NoError(t, migrations.Run(dbx))

	return sqlite.New(dbx, opts...)
}

func TestEvaluatePost(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t)
	)

	_, err := repo.InsertPost(ctx, dealwatch.Post{
		ID:            "p1",
		CreatedUTC:    "2023-01-01T00:00:00Z",
		LinkFlairText: ptr("GPU"),
		Title:         "[GPU] ASUS NVIDIA GeForce RTX 4070 Ti $799.99",
	})
	require.NoError(t, err)
	listing, err := repo.InsertListing(ctx, gpuListing(799, 99))
	require.NoError(t, err)

	hit, err := repo.PutRule(ctx, dealwatch.Rule{
		Name:               ptr("nvidia under a grand"),
		DescriptionPattern: ptr("nvidia"),
		PriceMax:           ptr(1000.0),
	})
	require.NoError(t, err)
	_, err = repo.PutRule(ctx, dealwatch.Rule{
		Name:               ptr("amd only"),
		DescriptionPattern: ptr("amd || radeon"),
	})
	require.NoError(t, err)

	at := time.Date(2023, 1, 1, 0, 1, 0, 0, time.UTC)
	ev, err := evaluate.New(repo, repo, evaluate.WithClock(func() time.Time { return at }))
	require.NoError(t, err)

	recorded, err := ev.EvaluatePost(ctx, mustPost(t, repo, "p1"), []dealwatch.Listing{listing})
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, hit.ID, recorded[0].RuleID)
	assert.Equal(t, "p1", recorded[0].PostID)
	assert.Equal(t, "2023-01-01T00:01:00Z", recorded[0].CreatedUTC)

	// A second pass appends again: the match log records every run.
	_, err = ev.EvaluatePost(ctx, mustPost(t, repo, "p1"), []dealwatch.Listing{listing})
	require.NoError(t, err)

	matches, err := repo.RuleMatches(ctx, hit.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestEvaluatePost_WithDedupe(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newTestRepo(t, sqlite.WithMatchDedupe())
	)

	_, err := repo.InsertPost(ctx, dealwatch.Post{
		ID:         "p1",
		CreatedUTC: "2023-01-01T00:00:00Z",
		Title:      "[GPU] ASUS NVIDIA GeForce RTX 4070 Ti $799.99",
	})
	require.NoError(t, err)
	listing, err := repo.InsertListing(ctx, gpuListing(799, 99))
	require.NoError(t, err)

	rule, err := repo.PutRule(ctx, dealwatch.Rule{DescriptionPattern: ptr("nvidia")})
	require.NoError(t, err)

	ev, err := evaluate.New(repo, repo)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := ev.EvaluatePost(ctx, mustPost(t, repo, "p1"), []dealwatch.Listing{listing})
		require.NoError(t, err)
	}

	matches, err := repo.RuleMatches(ctx, rule.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func mustPost(t *testing.T, repo *sqlite.Repo, id string) dealwatch.Post {
	t.Helper()

	p, err := repo.Post(context.Background(), id)
	require.NoError(t, err)
	return p
}
