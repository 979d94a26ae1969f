package model

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == SortAsc || o == SortDesc
}

// ListParams is the server-side query for one page of a collection.
// Page is 1-based.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder SortOrder
	Filters   map[string]string
}

// Normalize clamps page and limit into their valid ranges and drops empty
// filter values.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	if p.SortBy == "" {
		p.SortOrder = ""
	} else if !p.SortOrder.IsValid() {
		p.SortOrder = SortAsc
	}

	filters := make(map[string]string, len(p.Filters))
	for k, v := range p.Filters {
		if v != "" {
			filters[k] = v
		}
	}
	p.Filters = filters
	return p
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p ListParams) Filter(name string) string {
	return p.Filters[name]
}

// Values encodes the params as a query string. Empty values are omitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
		v.Set("sortOrder", string(p.SortOrder))
	}
	for k, val := range p.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Key is a canonical cache key: two params with equal keys describe the
// same server query.
func (p ListParams) Key() string {
	n := p.Normalize()

	names := make([]string, 0, len(n.Filters))
	for k := range n.Filters {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strconv.Itoa(n.Page))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(n.Limit))
	b.WriteByte('|')
	b.WriteString(url.QueryEscape(n.Search))
	b.WriteByte('|')
	b.WriteString(n.SortBy)
	b.WriteByte(':')
	b.WriteString(string(n.SortOrder))
	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(n.Filters[k]))
	}
	return b.String()
}

// ParseListParams reads page, limit, search, sortBy, sortOrder and the named
// filters from a query string.
func ParseListParams(q url.Values, filterNames ...string) ListParams {
	p := ListParams{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: SortOrder(strings.ToLower(q.Get("sortOrder"))),
		Filters:   make(map[string]string, len(filterNames)),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = v
	}
	for _, name := range filterNames {
		if v := q.Get(name); v != "" {
			p.Filters[name] = v
		}
	}
	return p.Normalize()
}

// Page is one server page of a collection.
type Page[T any] struct {
	Items     []T `json:"items"`
	Total     int `json:"total"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
}

// PageCount returns the number of pages needed for total rows.
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
