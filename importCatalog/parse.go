package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/noxer-shop/storefront/models"
)

var requiredColumns = []string{"name", "price", "category"}

// readCSV maps rows to products by header name. Rows that fail to parse are
// logged and skipped; rows without an id get the next free one.
func readCSV(r io.Reader) ([]models.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV is empty or has only headers")
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", name)
		}
	}

	var products []models.Product
	var pending []int // indexes of products without an id
	maxID := 0
	for i, row := range records[1:] {
		line := i + 2
		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		rec := models.ProductCSV{
			ID:            field("id"),
			Name:          field("name"),
			Price:         field("price"),
			OriginalPrice: field("original_price"),
			Discount:      field("discount"),
			Category:      field("category"),
			Image:         field("image"),
			Description:   field("description"),
			Tags:          field("tags"),
			InStock:       field("in_stock"),
			Rating:        field("rating"),
			ReviewsCount:  field("reviews_count"),
		}

		p, err := parseProduct(rec)
		if err != nil {
			log.Printf("Skipping row %d: %v", line, err)
			continue
		}
		if p.ID == 0 {
			pending = append(pending, len(products))
		}
		maxID = max(maxID, p.ID)
		products = append(products, p)
	}

	for _, i := range pending {
		maxID++
		products[i].ID = maxID
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no valid rows in CSV")
	}
	return products, nil
}

func parseProduct(rec models.ProductCSV) (models.Product, error) {
	p := models.Product{
		Name:        rec.Name,
		Category:    strings.ToLower(rec.Category),
		Image:       rec.Image,
		Description: rec.Description,
		Tags:        []string{},
		InStock:     true,
	}
	if p.Name == "" {
		return p, fmt.Errorf("empty name")
	}

	var err error
	if rec.ID != "" {
		if p.ID, err = strconv.Atoi(rec.ID); err != nil || p.ID <= 0 {
			return p, fmt.Errorf("invalid id '%s'", rec.ID)
		}
	}
	if p.Price, err = strconv.Atoi(rec.Price); err != nil || p.Price < 0 {
		return p, fmt.Errorf("invalid price '%s'", rec.Price)
	}
	if p.OriginalPrice, err = optionalInt(rec.OriginalPrice); err != nil {
		return p, fmt.Errorf("invalid original price '%s': %w", rec.OriginalPrice, err)
	}
	if p.Discount, err = optionalInt(rec.Discount); err != nil {
		return p, fmt.Errorf("invalid discount '%s': %w", rec.Discount, err)
	}
	if p.ReviewsCount, err = optionalInt(rec.ReviewsCount); err != nil {
		return p, fmt.Errorf("invalid reviews count '%s': %w", rec.ReviewsCount, err)
	}
	if rec.Rating != "" {
		r, err := strconv.ParseFloat(rec.Rating, 64)
		if err != nil || r < 0 || r > 5 {
			return p, fmt.Errorf("invalid rating '%s'", rec.Rating)
		}
		p.Rating = &r
	}
	if rec.InStock != "" {
		if p.InStock, err = strconv.ParseBool(rec.InStock); err != nil {
			return p, fmt.Errorf("invalid in_stock '%s': %w", rec.InStock, err)
		}
	}
	for _, tag := range strings.Split(rec.Tags, "|") {
		if tag = strings.TrimSpace(tag); tag != "" {
			p.Tags = append(p.Tags, tag)
		}
	}
	return p, nil
}

// optionalInt treats an empty field as NULL
func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
