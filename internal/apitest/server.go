// Package apitest provides an in-memory fake of the catalog REST
// backend for tests. It speaks the same polymorphic response shapes as
// the real service (bare arrays, "products"/"data" envelopes,
// x-total-count) and can be scripted to rate-limit or fail specific
// endpoints.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/shelf/pkg/model"
)

// Response shape modes for list endpoints.
const (
	ShapeArray    = "array"    // bare JSON array
	ShapeProducts = "products" // {"products": [...], "total": n}
	ShapeData     = "data"     // {"data": [...], "totalCount": n}
)

// Server is a scriptable fake catalog backend.
type Server struct {
	URL   string
	Token string // the only token the server accepts

	mu         sync.Mutex
	products   []model.Product
	categories []model.Category
	nextID     int

	// Shape selects the list response encoding (default ShapeArray).
	Shape string
	// TotalHeader, when true, adds x-total-count to bare-array
	// responses.
	TotalHeader bool
	// RateLimitRemaining makes list endpoints answer 429 that many
	// times before succeeding.
	RateLimitRemaining int
	// RetryAfterSecs adds a Retry-After header to 429 responses.
	RetryAfterSecs int
	// FailDirectGet makes GET /products/{id} answer 404
	// unconditionally, forcing clients onto the list-query fallback.
	FailDirectGet bool
	// RejectAll makes every authenticated endpoint answer 401,
	// simulating an expired token.
	RejectAll bool

	// ListCalls counts requests to GET /products.
	ListCalls int
	// AuthRejected counts requests turned away with 401.
	AuthRejected int
}

// NewServer starts a fake backend and registers cleanup with t.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		Token: "tok_test",
		Shape: ShapeArray,
	}

	r := chi.NewRouter()
	r.Post("/auth", s.handleAuth)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleCreateProduct)
		r.Get("/products/search", s.handleSearchProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Put("/products/{id}", s.handleUpdateProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)
		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/search", s.handleListCategories)
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	s.URL = ts.URL
	return s
}

// AddProduct stores a product, assigning an ID and timestamps when
// missing, and returns the stored record.
func (s *Server) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		s.nextID++
		p.ID = fmt.Sprintf("p_%03d", s.nextID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = time.Now().UTC()
	s.products = append(s.products, p)
	return p
}

// AddCategory stores a category, assigning an ID when missing.
func (s *Server) AddCategory(c model.Category) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		s.nextID++
		c.ID = fmt.Sprintf("c_%03d", s.nextID)
	}
	s.categories = append(s.categories, c)
	return c
}

// SeedProducts adds n generated products and returns them.
func (s *Server) SeedProducts(n int) []model.Product {
	out := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.AddProduct(model.Product{
			Name:  fmt.Sprintf("Widget %02d", i+1),
			Price: float64(i+1) * 2.5,
		}))
	}
	return out
}

// Products returns a copy of the stored products.
func (s *Server) Products() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Product(nil), s.products...)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		reject := s.RejectAll
		token := s.Token
		s.mu.Unlock()

		if reject || r.Header.Get("Authorization") != "Bearer "+token {
			s.mu.Lock()
			s.AuthRejected++
			s.mu.Unlock()
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "email is required"})
		return
	}
	s.mu.Lock()
	token := s.Token
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ListCalls++
	if s.RateLimitRemaining > 0 {
		s.RateLimitRemaining--
		if s.RetryAfterSecs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(s.RetryAfterSecs))
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": "rate limited"})
		return
	}

	matched := make([]model.Product, 0, len(s.products))
	idFilter := r.URL.Query().Get("id")
	categoryFilter := r.URL.Query().Get("categoryId")
	for _, p := range s.products {
		if idFilter != "" && p.ID != idFilter {
			continue
		}
		if categoryFilter != "" && p.CategoryID != categoryFilter {
			continue
		}
		matched = append(matched, p)
	}
	shape, withHeader := s.Shape, s.TotalHeader
	s.mu.Unlock()

	total := len(matched)
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := matched[offset:end]

	switch shape {
	case ShapeProducts:
		writeJSON(w, http.StatusOK, map[string]any{"products": page, "total": total})
	case ShapeData:
		writeJSON(w, http.StatusOK, map[string]any{"data": page, "totalCount": total})
	default:
		if withHeader {
			w.Header().Set("x-total-count", strconv.Itoa(total))
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	s.mu.Lock()
	matched := make([]model.Product, 0)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	fail := s.FailDirectGet
	var found *model.Product
	for i := range s.products {
		if s.products[i].ID == id {
			found = &s.products[i]
			break
		}
	}
	s.mu.Unlock()

	if fail || found == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed product"})
		return
	}
	if strings.TrimSpace(p.Name) == "" || p.Price <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "name and positive price required"})
		return
	}
	p.ID = ""
	writeJSON(w, http.StatusCreated, s.AddProduct(p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed product"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p.ID = id
			p.CreatedAt = s.products[i].CreatedAt
			p.UpdatedAt = time.Now().UTC()
			s.products[i] = p
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"id": id})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "product not found"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	s.mu.Lock()
	matched := make([]model.Category, 0)
	for _, c := range s.categories {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": matched, "totalCount": len(matched)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
