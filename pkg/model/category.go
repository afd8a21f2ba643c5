package model

import "time"

// Category groups products. Categories are a flat set; there is no
// hierarchy.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryList is the canonical result of a category list query.
type CategoryList struct {
	Items []Category `json:"items"`
	Total int        `json:"total"`
}
