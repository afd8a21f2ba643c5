package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/me/shelf/pkg/model"
)

// The catalog backend is inconsistent about list response shapes: some
// endpoints return a bare JSON array, others wrap the items in an
// object under "products" or "data" with the total under "total" or
// "totalCount". The functions here perform the tagged parse once, at
// the API boundary, so everything above it works with one canonical
// {Items, Total} shape.

// totalCountHeader optionally carries the total item count.
const totalCountHeader = "x-total-count"

// decodeProductList normalizes a product list response.
func decodeProductList(data []byte, header http.Header) (*model.ProductList, error) {
	if isArray(data) {
		var items []model.Product
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse product array: %w", err)
		}
		return &model.ProductList{Items: items, Total: headerTotal(header, len(items))}, nil
	}

	var env struct {
		Products   *[]model.Product `json:"products"`
		Data       *[]model.Product `json:"data"`
		Total      *int             `json:"total"`
		TotalCount *int             `json:"totalCount"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse product list: %w", err)
	}

	var items []model.Product
	switch {
	case env.Products != nil:
		items = *env.Products
	case env.Data != nil:
		items = *env.Data
	default:
		return nil, fmt.Errorf("parse product list: unrecognized response shape")
	}

	return &model.ProductList{Items: items, Total: envelopeTotal(env.Total, env.TotalCount, header, len(items))}, nil
}

// decodeCategoryList normalizes a category list response with the
// same shape rules as decodeProductList.
func decodeCategoryList(data []byte, header http.Header) (*model.CategoryList, error) {
	if isArray(data) {
		var items []model.Category
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse category array: %w", err)
		}
		return &model.CategoryList{Items: items, Total: headerTotal(header, len(items))}, nil
	}

	var env struct {
		Categories *[]model.Category `json:"categories"`
		Data       *[]model.Category `json:"data"`
		Total      *int              `json:"total"`
		TotalCount *int              `json:"totalCount"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse category list: %w", err)
	}

	var items []model.Category
	switch {
	case env.Categories != nil:
		items = *env.Categories
	case env.Data != nil:
		items = *env.Data
	default:
		return nil, fmt.Errorf("parse category list: unrecognized response shape")
	}

	return &model.CategoryList{Items: items, Total: envelopeTotal(env.Total, env.TotalCount, header, len(items))}, nil
}

// decodeProduct parses a single product, accepting either the record
// itself or an envelope with the record under "data" or "product".
func decodeProduct(data []byte) (*model.Product, error) {
	var env struct {
		Data    *model.Product `json:"data"`
		Product *model.Product `json:"product"`
	}
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Data != nil {
			return env.Data, nil
		}
		if env.Product != nil {
			return env.Product, nil
		}
	}

	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse product: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("parse product: missing id")
	}
	return &p, nil
}

// isArray reports whether the JSON document is a bare array.
func isArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// envelopeTotal picks the total from the envelope fields, falling back
// to the x-total-count header and finally the item count.
func envelopeTotal(total, totalCount *int, header http.Header, fallback int) int {
	if total != nil {
		return *total
	}
	if totalCount != nil {
		return *totalCount
	}
	return headerTotal(header, fallback)
}

// headerTotal parses the x-total-count header, falling back to the
// item count when the header is absent or malformed.
func headerTotal(header http.Header, fallback int) int {
	v := header.Get(totalCountHeader)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
