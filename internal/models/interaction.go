package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Types d'interaction utilisateur ↔ produit
const (
	InteractionView     = "view"
	InteractionCart     = "cart"
	InteractionWishlist = "wishlist"
	InteractionPurchase = "purchase"
)

// Interaction trace un évènement utilisateur sur un produit
// (consommé par les recommandations, hors du périmètre de cette couche).
type Interaction struct {
	ID        gocql.UUID `json:"id" db:"interaction_id"`
	UserID    gocql.UUID `json:"user_id" db:"user_id"`
	ProductID gocql.UUID `json:"product_id" db:"product_id"`
	Type      string     `json:"type" db:"type" validate:"oneof=view cart wishlist purchase"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
