// Package title extracts structured listings from scraped post titles.
//
// Marketplace titles loosely follow the convention
//
//	[TYPE] some product description $DOLLARS.CENTS trailing details
//
// and this package pulls that apart. Extraction is best effort: a title
// that doesn't fit produces zero listings, which is an expected outcome
// and never an error.
package title

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jdholdren/dealwatch/internal/dealwatch"
)

var titleRe = regexp.MustCompile(`\[(?P<type>[ \w]+)\](?P<desc>[^$]*)\$(?P<dollars>\d+)(\.(?P<cents>\d+))?(?P<extra>[^\d].*)?`)

var (
	typeIdx    = titleRe.SubexpIndex("type")
	descIdx    = titleRe.SubexpIndex("desc")
	dollarsIdx = titleRe.SubexpIndex("dollars")
	centsIdx   = titleRe.SubexpIndex("cents")
	extraIdx   = titleRe.SubexpIndex("extra")
)

// Parse extracts the listings present in a post's title. The returned
// listings reference postID but carry no row id; the store assigns one on
// insert.
func Parse(postTitle, postID string) []dealwatch.Listing {
	m := titleRe.FindStringSubmatch(sanitize(postTitle))
	if m == nil {
		return nil
	}

	dollars, err := strconv.ParseInt(m[dollarsIdx], 10, 64)
	if err != nil {
		return nil
	}

	// A missing cents group means a whole-dollar price. Anything that
	// doesn't land in [0,99] isn't a cents value, so the whole parse is
	// rejected rather than guessed at.
	var cents int64
	if m[centsIdx] != "" {
		cents, err = strconv.ParseInt(m[centsIdx], 10, 64)
		if err != nil || cents > 99 {
			return nil
		}
	}

	l := dealwatch.Listing{
		PostID:       postID,
		ProductType:  strings.TrimSpace(m[typeIdx]),
		Description:  strings.TrimSpace(m[descIdx]),
		PriceDollars: dollars,
		PriceCents:   cents,
	}
	if extra := strings.TrimSpace(m[extraIdx]); extra != "" {
		l.ExtraDetails = &extra
	}

	return []dealwatch.Listing{l}
}

var stripPolicy = bluemonday.StrictPolicy()

const maxTitleLen = 2048

// Scraped titles occasionally arrive with markup in them. Strip any tags,
// undo the entity escaping the sanitizer applies to plain text, and cap
// the length so a runaway title can't bloat the store.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	if len(s) > maxTitleLen {
		s = s[:maxTitleLen]
	}

	return s
}
