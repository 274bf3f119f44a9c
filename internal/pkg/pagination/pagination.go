package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mutualsplus/site/internal/pkg/response"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
	// MaxPage keeps Offset far from integer overflow.
	MaxPage = 1 << 20
)

// Query holds parsed pagination parameters. Page is 1-based.
type Query struct {
	Page int
	Size int
}

// Index returns the 0-based page index.
func (q Query) Index() int { return q.Page - 1 }

// Offset returns the number of rows before the first row of the page.
func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// FromContext extracts and clamps pagination params from the request.
func FromContext(c *gin.Context) Query {
	return Normalize(
		parseIntOr(c.DefaultQuery("page", "1"), DefaultPage),
		parseIntOr(c.DefaultQuery("size", strconv.Itoa(DefaultSize)), DefaultSize),
	)
}

// Normalize clamps page and size into their valid ranges.
func Normalize(page, size int) Query {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Query{Page: page, Size: size}
}

// Slice returns the page of items selected by q along with its metadata.
// Pages past the end yield an empty slice.
func Slice[T any](items []T, q Query) ([]T, response.Meta) {
	total := len(items)
	meta := response.Meta{
		Total:      total,
		Page:       q.Page,
		Limit:      q.Size,
		TotalPages: TotalPages(total, q.Size),
	}

	if q.Size < 1 || q.Page < 1 || q.Index() >= meta.TotalPages {
		return []T{}, meta
	}
	start := q.Offset()
	end := start + q.Size
	if end > total {
		end = total
	}
	return items[start:end], meta
}

// TotalPages returns ceil(total/size), and 0 for an empty set.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
