package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/api"
	"github.com/noxer-shop/storefront/pkg/cache"
	"github.com/noxer-shop/storefront/pkg/catalog"
	"github.com/noxer-shop/storefront/pkg/config"
	"github.com/noxer-shop/storefront/pkg/database"
)

func main() {
	csvPath := flag.String("csv", "", "catalog CSV to import")
	fixturePath := flag.String("fixture", "", "YAML catalog fixture to import instead of a CSV")
	flag.Parse()

	config.LoadEnv() // Load environment variables first
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DB.Driver == "" {
		log.Fatalf("DB_DRIVER must be set to postgres or sqlite")
	}

	products, err := loadProducts(*csvPath, *fixturePath)
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbClient, err := database.NewClient(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize DB client: %v", err)
	}
	defer dbClient.Close()

	store := database.NewProductStore(dbClient, nil)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare catalog schema: %v", err)
	}
	n, err := store.UpsertProducts(ctx, products)
	if err != nil {
		log.Fatalf("Failed to import products: %v", err)
	}
	log.Printf("Imported %d products into the %s catalog.", n, dbClient.Driver())

	invalidateCache(ctx, cfg)
}

func loadProducts(csvPath, fixturePath string) ([]models.Product, error) {
	switch {
	case csvPath != "" && fixturePath != "":
		return nil, errors.New("use either -csv or -fixture, not both")
	case fixturePath != "":
		f, err := catalog.LoadFixtureFile(fixturePath)
		if err != nil {
			return nil, err
		}
		return f.Products, nil
	case csvPath != "":
		file, err := os.Open(csvPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return readCSV(file)
	default:
		log.Println("No -csv or -fixture given, importing the built-in catalog.")
		return catalog.DefaultFixture().Products, nil
	}
}

// invalidateCache drops cached API responses so the storefront sees the new data.
// Redis is optional here; a failure is a soft one.
func invalidateCache(ctx context.Context, cfg config.Config) {
	redisClient, err := cache.NewRedisClient(cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if errors.Is(err, cache.ErrNotConfigured) {
		return
	}
	if err != nil {
		log.Printf("Skipping cache invalidation: %v", err)
		return
	}
	defer redisClient.Close()

	n, err := cache.NewRedisStore(redisClient.GetClient(), api.CachePrefix).Invalidate(ctx, api.CachePrefix)
	if err != nil {
		log.Printf("Error invalidating cached responses: %v", err)
		return
	}
	log.Printf("Invalidated %d cached responses.", n)
}
