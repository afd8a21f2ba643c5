package model

import (
	"strings"
	"time"
)

// Product is a catalog product. The backend owns the record; clients
// hold a read-through copy of the current page only.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Images      []string  `json:"images,omitempty"` // ordered image locators
	Slug        string    `json:"slug,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the client-side submission rules: a product needs a
// non-blank name and a positive price. Everything else is validated by
// the backend.
func (p *Product) Validate() error {
	var details []FieldError
	if strings.TrimSpace(p.Name) == "" {
		details = append(details, FieldError{Field: "name", Message: "name is required"})
	}
	if p.Price <= 0 {
		details = append(details, FieldError{Field: "price", Message: "price must be greater than zero"})
	}
	if len(details) > 0 {
		return NewValidationError("invalid product", details...)
	}
	return nil
}

// ProductList is the canonical result of a product list query. The API
// boundary normalizes every server response shape into this one form.
type ProductList struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}
