// Package paging parses and applies offset pagination for list endpoints.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 6
	MaxPerPage     = 100
)

// Page is a 1-based page request.
type Page struct {
	Current int
	PerPage int
}

// Parse reads currentPage and perPage from the query string. Missing or
// invalid values fall back to the defaults; perPage is capped at MaxPerPage.
func Parse(r *http.Request) Page {
	return Page{
		Current: positive(query.Get(r, "currentPage"), DefaultPage),
		PerPage: min(positive(query.Get(r, "perPage"), DefaultPerPage), MaxPerPage),
	}
}

func positive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Skip is the number of documents before this page.
func (p Page) Skip() int64 { return int64((p.Current - 1) * p.PerPage) }

// Limit is the page size as Mongo expects it.
func (p Page) Limit() int64 { return int64(p.PerPage) }

// Stages returns the $skip/$limit aggregation stages for the page.
func (p Page) Stages() []bson.M {
	return []bson.M{
		{"$skip": p.Skip()},
		{"$limit": p.Limit()},
	}
}

// TotalPages returns how many pages total rows span.
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 || p.PerPage <= 0 {
		return 0
	}
	per := int64(p.PerPage)
	return (total + per - 1) / per
}
