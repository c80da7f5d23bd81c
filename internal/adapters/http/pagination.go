package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const maxPageLimit = 200

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// parsePagination reads offset and limit. ok is false when the client asked
// for neither, in which case the full list is returned.
func parsePagination(c *fiber.Ctx) (p Pagination, ok bool) {
	if c.Query("offset") == "" && c.Query("limit") == "" {
		return Pagination{}, false
	}
	p.Offset = c.QueryInt("offset", 0)
	p.Limit = c.QueryInt("limit", 100)
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxPageLimit {
		p.Limit = 100
	}
	return p, true
}

// paginate returns the page of items selected by p and records the total.
func paginate[T any](items []T, p *Pagination) []T {
	p.Total = len(items)
	if p.Offset >= p.Total {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return items[p.Offset:end]
}

type pageLink struct {
	rel    string
	offset int
}

func pageLinks(p Pagination) []pageLink {
	links := []pageLink{{"first", 0}}
	if p.Offset > 0 {
		links = append(links, pageLink{"prev", max(p.Offset-p.Limit, 0)})
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, pageLink{"next", p.Offset + p.Limit})
	}
	return append(links, pageLink{"last", max(p.Total-p.Limit, 0)})
}

// SetLinkHeaders adds RFC 8288 Link headers and X-Total-Count to a paginated
// response. Links keep every other query parameter of the request, so
// filters survive paging.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	query := url.Values{}
	for k, v := range c.Queries() {
		query.Set(k, v)
	}
	query.Set("limit", strconv.Itoa(p.Limit))

	links := make([]string, 0, 4)
	for _, l := range pageLinks(p) {
		query.Set("offset", strconv.Itoa(l.offset))
		links = append(links, fmt.Sprintf(`<%s?%s>; rel="%s"`, c.Path(), query.Encode(), l.rel))
	}

	c.Set("Link", strings.Join(links, ", "))
	c.Set("X-Total-Count", strconv.Itoa(p.Total))
}
