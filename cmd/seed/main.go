// Package main seeds the product catalog with demo data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/shopmate-ai/shopmate/internal/database"
)

func main() {
	dbPath := flag.String("db", "shopmate.db", "Path to the SQLite database file")
	force := flag.Bool("force", false, "Seed even when products already exist")
	flag.Parse()

	if code := run(*dbPath, *force); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath string, force bool) int {
	ctx := context.Background()

	db, err := database.NewDB(dbPath)
	if err != nil {
		slog.Error("Failed to open database", "path", dbPath, "error", err)
		return 1
	}
	defer database.CloseDB(db)

	store := database.NewStore(db, slog.Default())

	count, err := store.CountProducts(ctx)
	if err != nil {
		slog.Error("Failed to count products", "error", err)
		return 1
	}
	if count > 0 && !force {
		slog.Info("Catalog already seeded, skipping", "count", count)
		return 0
	}

	for i := range demoProducts {
		if err := store.InsertProduct(ctx, &demoProducts[i]); err != nil {
			slog.Error("Failed to insert product", "title", demoProducts[i].Title, "error", err)
			return 1
		}
	}

	slog.Info("Catalog seeded", "count", len(demoProducts))
	return 0
}

var demoProducts = []database.Product{
	{
		Title:       "Wireless Bluetooth Headphones",
		Description: "High-quality wireless headphones with noise cancellation and long battery life.",
		Price:       79.99, Category: "Electronics", Rating: 4.5, Stock: 10,
	},
	{
		Title:       "Smart Watch Pro",
		Description: "Advanced smartwatch with fitness tracking, heart rate monitor, and GPS.",
		Price:       299.99, Category: "Electronics", Rating: 4.7, Stock: 10,
	},
	{
		Title:       "USB-C Fast Charger",
		Description: "Quick charge adapter with multiple ports for all your devices.",
		Price:       24.99, Category: "Electronics", Rating: 4.3, Stock: 25,
	},
	{
		Title:       "Laptop Stand Adjustable",
		Description: "Ergonomic laptop stand for better posture and cooling.",
		Price:       34.99, Category: "Electronics", Rating: 4.4, Stock: 15,
	},
	{
		Title:       "Wireless Gaming Mouse",
		Description: "High-precision gaming mouse with customizable RGB lighting.",
		Price:       59.99, Category: "Electronics", Rating: 4.6, Stock: 12,
	},
	{
		Title:       "4K Webcam HD",
		Description: "Ultra HD webcam perfect for streaming and video calls.",
		Price:       89.99, Category: "Electronics", Rating: 4.5, Stock: 8,
	},
	{
		Title:       "The Art of Programming",
		Description: "Comprehensive guide to software development best practices.",
		Price:       45.99, Category: "Books", Rating: 4.8, Stock: 20,
	},
	{
		Title:       "Mystery Novel Collection",
		Description: "Thrilling mystery novels from bestselling authors.",
		Price:       19.99, Category: "Books", Rating: 4.2, Stock: 30,
	},
	{
		Title:       "Science Fiction Anthology",
		Description: "Classic and modern sci-fi stories in one collection.",
		Price:       27.99, Category: "Books", Rating: 4.4, Stock: 18,
	},
	{
		Title:       "Cooking Masterclass Textbook",
		Description: "Professional cooking techniques and recipes.",
		Price:       52.99, Category: "Books", Rating: 4.6, Stock: 14,
	},
	{
		Title:       "History of Ancient Civilizations",
		Description: "Detailed exploration of ancient cultures and empires.",
		Price:       38.99, Category: "Books", Rating: 4.3, Stock: 16,
	},
	{
		Title:       "Premium Cotton T-Shirt",
		Description: "Soft, breathable cotton t-shirt in multiple colors.",
		Price:       15.99, Category: "Textiles", Rating: 4.1, Stock: 50,
	},
	{
		Title:       "Wool Winter Jacket",
		Description: "Warm wool jacket perfect for cold weather.",
		Price:       129.99, Category: "Textiles", Rating: 4.5, Stock: 10,
	},
	{
		Title:       "Silk Scarf Elegant",
		Description: "Luxurious silk scarf with beautiful patterns.",
		Price:       42.99, Category: "Textiles", Rating: 4.4, Stock: 22,
	},
	{
		Title:       "Denim Jeans Classic",
		Description: "Durable denim jeans with a comfortable fit.",
		Price:       49.99, Category: "Textiles", Rating: 4.2, Stock: 35,
	},
	{
		Title:       "Linen Summer Shirt",
		Description: "Lightweight linen shirt ideal for warm days.",
		Price:       32.99, Category: "Textiles", Rating: 4.0, Stock: 28,
	},
}
