package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/types"
)

// Pagination configures page-number pagination of list endpoints.
type Pagination struct {
	// BaseURL prefixes the next and previous links.
	BaseURL     string
	PageSize    int
	MaxPageSize int
}

// PageResponse is the list envelope returned by paginated endpoints.
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageRequest struct {
	page  int
	limit int
}

func (r pageRequest) offset() int {
	return (r.page - 1) * r.limit
}

// parse reads the page and limit query parameters. An unusable page number
// answers 404, an unusable limit falls back to the default.
func (p Pagination) parse(c *gin.Context) (pageRequest, bool) {
	req := pageRequest{page: 1, limit: p.PageSize}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusNotFound, gin.H{"detail": MsgInvalidPage})
			return req, false
		}
		req.page = page
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			req.limit = limit
		}
	}
	if p.MaxPageSize > 0 && req.limit > p.MaxPageSize {
		req.limit = p.MaxPageSize
	}
	return req, true
}

// respondPage writes the page envelope. A page past the last one is a 404,
// except for the first page of an empty result.
func respondPage[T any](c *gin.Context, p Pagination, req pageRequest, page *types.Page[T]) {
	if req.page > 1 && int64(req.offset()) >= page.Count {
		c.JSON(http.StatusNotFound, gin.H{"detail": MsgInvalidPage})
		return
	}

	results := page.Results
	if results == nil {
		results = []T{}
	}
	resp := PageResponse[T]{Count: page.Count, Results: results}
	if int64(req.offset()+req.limit) < page.Count {
		resp.Next = p.pageURL(c, req.page+1)
	}
	if req.page > 1 {
		resp.Previous = p.pageURL(c, req.page-1)
	}
	c.JSON(http.StatusOK, resp)
}

// pageURL is the absolute URL of the current request with page replaced.
// The first page carries no page parameter.
func (p Pagination) pageURL(c *gin.Context, page int) *string {
	query := url.Values{}
	for k, v := range c.Request.URL.Query() {
		query[k] = v
	}
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := strings.TrimRight(p.BaseURL, "/") + c.Request.URL.Path
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}
