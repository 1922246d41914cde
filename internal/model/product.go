package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultProductImage is used when a product is created without an image.
const DefaultProductImage = "https://via.placeholder.com/600x400.png?text=No+Image"

// Product represents an item in the catalogue.
type Product struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user"`
	Name            string     `json:"name"`
	Image           string     `json:"image"`
	Description     string     `json:"description"`
	Price           float64    `json:"price"`
	CountInStock    int        `json:"countInStock"`
	FlashSale       bool       `json:"flashSale"`
	DiscountPrice   float64    `json:"discountPrice"`
	DiscountExpires *time.Time `json:"discountExpires,omitempty"`
	Category        string     `json:"category"`
	Brand           string     `json:"brand"`
	Rating          float64    `json:"rating"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ProductRequest is the admin payload for creating a product.
type ProductRequest struct {
	Name         string  `json:"name" validate:"required,min=3,max=100"`
	Description  string  `json:"description" validate:"required,min=10"`
	Image        string  `json:"image" validate:"required"`
	Price        float64 `json:"price" validate:"gte=0"`
	CountInStock *int    `json:"countInStock" validate:"required,gte=0"`
	FlashSale    bool    `json:"flashSale"`
	Category     string  `json:"category"`
	Brand        string  `json:"brand"`
}
