package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestProductValidate(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		wantErr bool
	}{
		{"valid", Product{Name: "Desk", Price: 120}, false},
		{"missing name", Product{Price: 120}, true},
		{"blank name", Product{Name: "   ", Price: 120}, true},
		{"zero price", Product{Name: "Desk"}, true},
		{"negative price", Product{Name: "Desk", Price: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantErr && !IsCode(err, ErrValidation) {
				t.Errorf("Validate() = %v, want VALIDATION_ERROR", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestProductValidate_ReportsAllFields(t *testing.T) {
	err := (&Product{}).Validate()

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if len(apiErr.Details) != 2 {
		t.Errorf("details = %d, want 2 (name and price)", len(apiErr.Details))
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
		want bool
	}{
		{NewNotFoundError("product", "p1"), IsNotFound, true},
		{NewSessionExpiredError(), IsSessionExpired, true},
		{NewRateLimitError(4), IsRateLimited, true},
		{NewAuthMissingError(), IsAuthMissing, true},
		{NewNotFoundError("product", "p1"), IsRateLimited, false},
		{errors.New("plain"), IsNotFound, false},
		{nil, IsNotFound, false},
	}
	for i, tt := range tests {
		if got := tt.pred(tt.err); got != tt.want {
			t.Errorf("case %d: predicate(%v) = %v, want %v", i, tt.err, got, tt.want)
		}
	}
}

func TestErrorPredicates_Wrapped(t *testing.T) {
	err := fmt.Errorf("list products: %w", NewRateLimitError(4))
	if !IsRateLimited(err) {
		t.Error("predicate should see through error wrapping")
	}
}

func TestListOptionsClamp(t *testing.T) {
	tests := []struct {
		in   ListOptions
		want ListOptions
	}{
		{ListOptions{}, ListOptions{Limit: 9}},
		{ListOptions{Limit: -1, Offset: -5}, ListOptions{Limit: 9}},
		{ListOptions{Limit: 500, Offset: 18}, ListOptions{Limit: 100, Offset: 18}},
		{ListOptions{Limit: 9, Offset: 9}, ListOptions{Limit: 9, Offset: 9}},
	}
	for _, tt := range tests {
		got := tt.in
		got.Clamp()
		if got != tt.want {
			t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
