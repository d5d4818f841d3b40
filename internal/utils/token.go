package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken génère un jeton hexadécimal aléatoire de n octets
// (vérification d'e-mail, réinitialisation de mot de passe).
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
