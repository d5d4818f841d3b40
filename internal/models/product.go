package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Types de remise
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Product struct {
	ID            gocql.UUID        `json:"id" db:"product_id"`
	Name          string            `json:"name" db:"name" validate:"required,max=200"`
	Slug          string            `json:"slug" db:"slug"`
	SKU           string            `json:"sku" db:"sku" validate:"required"`
	Description   string            `json:"description" db:"description" validate:"max=2000"`
	Price         float64           `json:"price" db:"price" validate:"gte=0"`
	OriginalPrice *float64          `json:"original_price,omitempty" db:"original_price"`
	Stock         int               `json:"stock" db:"stock" validate:"gte=0"`
	CategoryID    gocql.UUID        `json:"category_id" db:"category_id"`
	Brand         string            `json:"brand,omitempty" db:"brand"`
	ImageURLs     []string          `json:"image_urls" db:"image_urls"`
	Tags          []string          `json:"tags" db:"tags"`
	Attributes    map[string]string `json:"attributes,omitempty" db:"attributes"`
	IsActive      bool              `json:"is_active" db:"is_active"`
	IsFeatured    bool              `json:"is_featured" db:"is_featured"`
	Discount      *Discount         `json:"discount,omitempty"`
	Rating        Rating            `json:"rating"`
	Views         int64             `json:"views"`
	Sales         int64             `json:"sales"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

// Discount est une remise bornée dans le temps. Une borne absente
// est considérée comme ouverte de ce côté.
type Discount struct {
	Type      string     `json:"type" validate:"oneof=percentage fixed"`
	Value     float64    `json:"value" validate:"gte=0"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// ActiveAt indique si la remise s'applique à l'instant donné.
func (d *Discount) ActiveAt(now time.Time) bool {
	if d == nil {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// Rating est l'agrégat (moyenne, nombre) dérivé des avis approuvés.
type Rating struct {
	Average float64 `json:"average" validate:"gte=0,lte=5"`
	Count   int     `json:"count" validate:"gte=0"`
}

// EffectivePrice retourne le prix après remise active, sinon le prix de base.
func (p *Product) EffectivePrice() float64 {
	return p.EffectivePriceAt(time.Now())
}

// EffectivePriceAt calcule le prix effectif à un instant donné.
// Une remise fixe ne fait jamais passer le prix sous zéro.
func (p *Product) EffectivePriceAt(now time.Time) float64 {
	if !p.Discount.ActiveAt(now) {
		return p.Price
	}
	switch p.Discount.Type {
	case DiscountPercentage:
		return p.Price * (1 - p.Discount.Value/100)
	case DiscountFixed:
		if p.Price-p.Discount.Value < 0 {
			return 0
		}
		return p.Price - p.Discount.Value
	}
	return p.Price
}

// RecordRating met à jour l'agrégat de note de façon incrémentale.
// Chemin d'ajustement manuel uniquement : le recalcul complet effectué
// par le service des avis fait foi.
func (p *Product) RecordRating(newRating float64) {
	total := p.Rating.Average*float64(p.Rating.Count) + newRating
	p.Rating.Count++
	p.Rating.Average = total / float64(p.Rating.Count)
}
