package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/catalog"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id             INTEGER PRIMARY KEY,
	name           TEXT NOT NULL,
	price          INTEGER NOT NULL,
	original_price INTEGER,
	discount       INTEGER,
	category       TEXT NOT NULL,
	image          TEXT NOT NULL,
	description    TEXT,
	tags           TEXT NOT NULL,
	in_stock       BOOLEAN NOT NULL,
	rating         DOUBLE PRECISION,
	reviews_count  INTEGER
)`

const selectProducts = `SELECT id, name, price, original_price, discount, category, image, description, tags, in_stock, rating, reviews_count FROM products ORDER BY id ASC`

const upsertProduct = `
INSERT INTO products (id, name, price, original_price, discount, category, image, description, tags, in_stock, rating, reviews_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	original_price = EXCLUDED.original_price,
	discount = EXCLUDED.discount,
	category = EXCLUDED.category,
	image = EXCLUDED.image,
	description = EXCLUDED.description,
	tags = EXCLUDED.tags,
	in_stock = EXCLUDED.in_stock,
	rating = EXCLUDED.rating,
	reviews_count = EXCLUDED.reviews_count`

// ProductStore reads and writes the catalog fixture table. It also serves as
// a fetch source: every call loads the table and runs the mock catalog rules.
type ProductStore struct {
	client *DBClient
	logger *slog.Logger
}

func NewProductStore(client *DBClient, logger *slog.Logger) *ProductStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductStore{client: client, logger: logger}
}

// EnsureSchema creates the products table if it is missing
func (s *ProductStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.GetDB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}
	return nil
}

// LoadProducts returns every product ordered by id
func (s *ProductStore) LoadProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.client.GetDB().QueryContext(ctx, selectProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products from DB: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var (
			p             models.Product
			originalPrice sql.NullInt64 // Use sql.Null* for nullable columns
			discount      sql.NullInt64
			description   sql.NullString
			tags          string
			rating        sql.NullFloat64
			reviews       sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &originalPrice, &discount, &p.Category, &p.Image,
			&description, &tags, &p.InStock, &rating, &reviews); err != nil {
			return nil, fmt.Errorf("error scanning product row from DB: %w", err)
		}
		if originalPrice.Valid {
			p.OriginalPrice = models.IntPtr(int(originalPrice.Int64))
		}
		if discount.Valid {
			p.Discount = models.IntPtr(int(discount.Int64))
		}
		p.Description = description.String
		if rating.Valid {
			p.Rating = models.FloatPtr(rating.Float64)
		}
		if reviews.Valid {
			p.ReviewsCount = models.IntPtr(int(reviews.Int64))
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("product %d has malformed tags %q: %w", p.ID, tags, err)
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration from DB: %w", err)
	}

	s.logger.Debug("loaded catalog fixture", "driver", s.client.Driver(), "products", len(products))
	return products, nil
}

// UpsertProducts writes products in one transaction, replacing rows with the same id
func (s *ProductStore) UpsertProducts(ctx context.Context, products []models.Product) (int, error) {
	tx, err := s.client.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback on error by default

	stmt, err := tx.PrepareContext(ctx, s.client.rebind(upsertProduct))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		tags, err := json.Marshal(nonNil(p.Tags))
		if err != nil {
			return 0, fmt.Errorf("failed to marshal tags of product %d: %w", p.ID, err)
		}
		_, err = stmt.ExecContext(ctx, p.ID, p.Name, p.Price, nullInt(p.OriginalPrice), nullInt(p.Discount),
			p.Category, p.Image, nullString(p.Description), string(tags), p.InStock,
			nullFloat(p.Rating), nullInt(p.ReviewsCount))
		if err != nil {
			return 0, fmt.Errorf("failed to upsert product %d (%s): %w", p.ID, p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(products), nil
}

// MainProducts returns the stored catalog
func (s *ProductStore) MainProducts(ctx context.Context) ([]models.Product, error) {
	return s.LoadProducts(ctx)
}

// FilteredProducts applies the mock catalog rules to the stored catalog
func (s *ProductStore) FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error) {
	products, err := s.LoadProducts(ctx)
	if err != nil {
		return models.PaginatedResult{}, err
	}
	return catalog.New(products).FilteredProducts(ctx, q)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// nullString converts a Go string to sql.NullString for nullable DB columns
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
