package apiclient

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ListQuery holds the list parameters understood by every backend collection.
// Filters carries resource specific parameters such as eventType or fileType.
type ListQuery struct {
	Page     int
	Limit    int
	Status   string
	Category string
	Search   string
	Featured *bool
	Filters  map[string]string
}

// Values encodes the non-zero fields as query parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		v.Set("status", s)
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		v.Set("category", s)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Featured != nil {
		v.Set("featured", strconv.FormatBool(*q.Featured))
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := strings.TrimSpace(q.Filters[k]); s != "" {
			v.Set(k, s)
		}
	}
	return v
}

// Bool returns a pointer to b, for ListQuery.Featured.
func Bool(b bool) *bool { return &b }
