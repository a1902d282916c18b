package products

import (
	"time"

	"github.com/agrocrm/backoffice/internal/store"
)

// Product represents a product entity
type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Unit        string    `json:"unit"`
	Price       int64     `json:"price"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stock is the on-hand quantity of a product at one location.
type Stock struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Location  string    `json:"location"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image is a product picture kept in blob storage.
type Image struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Position    int64  `json:"position"`
}

func productFromRecord(r store.Record) Product {
	return Product{
		ID:          r.String("id"),
		SKU:         r.String("sku"),
		Name:        r.String("name"),
		Category:    r.String("category"),
		Unit:        r.String("unit"),
		Price:       r.Int64("price"),
		Description: r.String("description"),
		IsActive:    r.Bool("is_active"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

func stockFromRecord(r store.Record) Stock {
	return Stock{
		ID:        r.String("id"),
		ProductID: r.String("product_id"),
		Location:  r.String("location"),
		Quantity:  r.Int64("quantity"),
		UpdatedAt: r.Time("updated_at"),
	}
}

func imageFromRecord(r store.Record) Image {
	return Image{
		ID:          r.String("id"),
		ProductID:   r.String("product_id"),
		Path:        r.String("path"),
		ContentType: r.String("content_type"),
		SizeBytes:   r.Int64("size_bytes"),
		Position:    r.Int64("position"),
	}
}
