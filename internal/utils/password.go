package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials est renvoyée quand le mot de passe ne correspond pas au hash.
var ErrInvalidCredentials = errors.New("identifiants invalides")

// HashPassword hache un mot de passe avec bcrypt.
// Le facteur de coût vient de la configuration (BCRYPT_COST).
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword vérifie qu'un mot de passe correspond au hash stocké.
func VerifyPassword(password, encodedHash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IsBcryptHash vérifie si un hash est au format bcrypt.
func IsBcryptHash(hash string) bool {
	return len(hash) > 4 && (hash[:4] == "$2a$" || hash[:4] == "$2b$")
}
