package services

import (
	"math"

	"ridehail/internal/config"
	"ridehail/internal/repository"
)

// PageRequest is a 1-based page number and a page size as sent by clients.
// Zero values pick the first page and the default size.
type PageRequest struct {
	Page     int
	PageSize int
}

type PageResult[T any] struct {
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Results  []T `json:"results"`
}

type paginator struct {
	defaultSize int
	maxSize     int
}

func newPaginator(cfg config.PaginationConfig) paginator {
	p := paginator{defaultSize: cfg.DefaultPageSize, maxSize: cfg.MaxPageSize}
	if p.maxSize <= 0 {
		p.maxSize = 100
	}
	if p.defaultSize <= 0 || p.defaultSize > p.maxSize {
		p.defaultSize = p.maxSize
	}
	return p
}

// window clamps the request and converts it to an offset/limit pair.
func (p paginator) window(req PageRequest) (PageRequest, repository.Page) {
	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.PageSize <= 0:
		req.PageSize = p.defaultSize
	case req.PageSize > p.maxSize:
		req.PageSize = p.maxSize
	}
	// A page too far out to address yields an offset past every listing
	// rather than a wrapped one.
	offset := math.MaxInt
	if req.Page-1 <= math.MaxInt/req.PageSize {
		offset = (req.Page - 1) * req.PageSize
	}
	return req, repository.Page{Offset: offset, Limit: req.PageSize}
}
