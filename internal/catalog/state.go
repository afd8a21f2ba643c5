// Package catalog holds the in-memory state behind the product views:
// the current page of products, the category list, search text,
// pagination counters, and the last error. It mediates between the
// front-end commands and the API client.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/me/shelf/pkg/model"
)

// Fetcher is the slice of the API client the state container uses.
type Fetcher interface {
	ListProducts(ctx context.Context, opts model.ListOptions) (*model.ProductList, error)
	SearchProducts(ctx context.Context, text string) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id string) (string, error)
	ListCategories(ctx context.Context, search string, opts model.ListOptions) (*model.CategoryList, error)
}

// State is the catalog state container. All mutation goes through its
// methods; refreshes are generation-stamped so a slow response that
// arrives after a newer refresh started can never overwrite newer
// state.
type State struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu            sync.Mutex
	page          int // 1-based
	pageSize      int
	searchText    string
	categoryID    string
	products      []model.Product
	total         int
	categories    []model.Category
	categoryTotal int
	loading       bool
	lastError     string
	gen           uint64 // bumped by every refresh; stale completions are discarded
}

// New creates a state container on page 1 with the given page size
// (9 when size is not positive, matching the list view).
func New(fetcher Fetcher, pageSize int, logger *slog.Logger) *State {
	if pageSize <= 0 {
		pageSize = 9
	}
	return &State{
		fetcher:  fetcher,
		logger:   logger,
		page:     1,
		pageSize: pageSize,
	}
}

// RefreshProducts reloads the current page. With non-empty search
// text it queries the unpaginated search endpoint and uses the result
// length as the total; otherwise it fetches the offset/limit window
// for the current page. On failure the previous items and total are
// left untouched and the error is both recorded as state and
// returned.
func (s *State) RefreshProducts(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.loading = true
	page, pageSize, search, categoryID := s.page, s.pageSize, s.searchText, s.categoryID
	s.mu.Unlock()

	var (
		items []model.Product
		total int
		err   error
	)
	if search != "" {
		items, err = s.fetcher.SearchProducts(ctx, search)
		total = len(items)
	} else {
		var list *model.ProductList
		list, err = s.fetcher.ListProducts(ctx, model.ListOptions{
			Offset:     (page - 1) * pageSize,
			Limit:      pageSize,
			CategoryID: categoryID,
		})
		if err == nil {
			items, total = list.Items, list.Total
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.Debug("discarding stale product refresh", "gen", gen, "current", s.gen)
		return nil
	}
	s.loading = false
	if err != nil {
		s.lastError = err.Error()
		return err
	}
	s.lastError = ""
	s.products = items
	s.total = total
	return nil
}

// RefreshCategories reloads the category list. On failure the
// previous categories are left untouched.
func (s *State) RefreshCategories(ctx context.Context) error {
	list, err := s.fetcher.ListCategories(ctx, "", model.ListOptions{Limit: 100})

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
		return err
	}
	s.categories = list.Items
	s.categoryTotal = list.Total
	return nil
}

// RemoveProduct deletes a product and, on confirmation, removes the
// matching item from the in-memory page and decrements the total
// (never below 0). The page is NOT re-fetched: after a deletion the
// visible page may hold pageSize-1 items, and callers needing a full
// page must call RefreshProducts themselves. On failure the state is
// untouched and the error propagates.
func (s *State) RemoveProduct(ctx context.Context, id string) error {
	if _, err := s.fetcher.DeleteProduct(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			if s.total > 0 {
				s.total--
			}
			break
		}
	}
	return nil
}

// SetSearchText replaces the search text and resets the current page
// to 1: a new search always restarts pagination.
func (s *State) SetSearchText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchText = text
	s.page = 1
}

// SetCategoryFilter replaces the category filter and resets the
// current page to 1.
func (s *State) SetCategoryFilter(categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryID = categoryID
	s.page = 1
}

// SetCurrentPage replaces the current page. No bounds validation is
// performed; callers clamp against TotalPages when it matters.
func (s *State) SetCurrentPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = n
}

// TotalPages returns max(1, ceil(total/pageSize)).
func (s *State) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := (s.total + s.pageSize - 1) / s.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Products returns the current page of products.
func (s *State) Products() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products
}

// Categories returns the loaded category list.
func (s *State) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories
}

// Total returns the server-reported (or inferred) product count.
func (s *State) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Page returns the current 1-based page number.
func (s *State) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// PageSize returns the items-per-page setting.
func (s *State) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}

// SearchText returns the current search text.
func (s *State) SearchText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchText
}

// Loading reports whether a product refresh is in flight.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the message of the last failed refresh, or empty
// string after a successful one.
func (s *State) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
