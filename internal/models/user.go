package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Rôles utilisateur
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            gocql.UUID  `json:"id" db:"user_id"`
	Email         string      `json:"email" db:"email" validate:"required,email"`
	Password      string      `json:"-" db:"password"` // toujours haché, jamais en clair
	Name          string      `json:"name" db:"name" validate:"required,max=100"`
	Role          string      `json:"role" db:"role" validate:"oneof=user admin"`
	IsActive      bool        `json:"is_active" db:"is_active"`
	EmailVerified bool        `json:"email_verified" db:"email_verified"`
	VerifyToken   string      `json:"-" db:"verify_token"`
	ResetToken    string      `json:"-" db:"reset_token"`
	ResetExpiry   *time.Time  `json:"-" db:"reset_expiry"`
	Addresses     []Address   `json:"addresses"`
	Preferences   Preferences `json:"preferences"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

type Address struct {
	ID         gocql.UUID `json:"id"`
	Label      string     `json:"label,omitempty"`
	Street     string     `json:"street" validate:"required"`
	City       string     `json:"city" validate:"required"`
	PostalCode string     `json:"postal_code"`
	Country    string     `json:"country" validate:"required"`
	Phone      string     `json:"phone,omitempty"`
	IsDefault  bool       `json:"is_default"`
}

// Preferences est le profil d'affinités et de notifications de l'utilisateur.
type Preferences struct {
	Categories    []string      `json:"categories,omitempty"`
	Brands        []string      `json:"brands,omitempty"`
	PriceMin      float64       `json:"price_min" validate:"gte=0"`
	PriceMax      float64       `json:"price_max" validate:"gte=0"`
	Notifications Notifications `json:"notifications"`
}

type Notifications struct {
	Email      bool `json:"email"`
	SMS        bool `json:"sms"`
	Promotions bool `json:"promotions"`
}

// DefaultAddress retourne l'adresse par défaut, ou nil si aucune.
func (u *User) DefaultAddress() *Address {
	for i := range u.Addresses {
		if u.Addresses[i].IsDefault {
			return &u.Addresses[i]
		}
	}
	return nil
}
