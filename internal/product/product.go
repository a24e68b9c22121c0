package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             int             `json:"id"`
	SellerID       int             `json:"user_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  int             `json:"stock_quantity"`
	Category       string          `json:"category"`
	ImageURL       string          `json:"image_url"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	SellerUsername string          `json:"seller_username,omitempty"`
	SellerEmail    string          `json:"seller_email,omitempty"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.ImageURL) == "" {
		return ErrMissingFields
	}
	if !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.StockQuantity < 0 {
		return ErrInvalidStock
	}
	return nil
}

// Patch lists the columns to change. Nil fields are left untouched.
type Patch struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity"`
	Category      *string          `json:"category"`
	ImageURL      *string          `json:"image_url"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.StockQuantity == nil && p.Category == nil && p.ImageURL == nil
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrMissingFields
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if p.StockQuantity != nil && *p.StockQuantity < 0 {
		return ErrInvalidStock
	}
	return nil
}

func (p Patch) apply(to Product) Product {
	if p.Name != nil {
		to.Name = *p.Name
	}
	if p.Description != nil {
		to.Description = *p.Description
	}
	if p.Price != nil {
		to.Price = *p.Price
	}
	if p.StockQuantity != nil {
		to.StockQuantity = *p.StockQuantity
	}
	if p.Category != nil {
		to.Category = *p.Category
	}
	if p.ImageURL != nil {
		to.ImageURL = *p.ImageURL
	}
	return to
}
