package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Review est un avis unique par couple (utilisateur, produit).
type Review struct {
	ID            gocql.UUID `json:"id" db:"review_id"`
	ProductID     gocql.UUID `json:"product_id" db:"product_id"`
	UserID        gocql.UUID `json:"user_id" db:"user_id"`
	UserName      string     `json:"user_name" db:"user_name"`
	Rating        int        `json:"rating" db:"rating" validate:"min=1,max=5"`
	Title         string     `json:"title" db:"title" validate:"max=100"`
	Comment       string     `json:"comment" db:"comment" validate:"max=1000"`
	HelpfulCount  int        `json:"helpful_count" db:"helpful_count"`
	HelpfulVoters []string   `json:"-" db:"helpful_voters"`
	Verified      bool       `json:"verified" db:"verified"` // achat vérifié (commande livrée)
	Approved      bool       `json:"approved" db:"approved"` // modération
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// HasVoted indique si l'utilisateur a déjà voté "utile" pour cet avis.
func (r *Review) HasVoted(userID string) bool {
	for _, v := range r.HelpfulVoters {
		if v == userID {
			return true
		}
	}
	return false
}

// RatingHistogram est la répartition des avis d'un produit sur l'échelle 1–5.
type RatingHistogram struct {
	Counts      map[int]int     `json:"counts"`
	Percentages map[int]float64 `json:"percentages"`
	Total       int             `json:"total"`
}
