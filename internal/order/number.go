package order

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateNumber produit un numéro de commande au format
// ORD-<8 derniers chiffres epoch-ms>-<6 caractères base36 aléatoires>.
// La partie aléatoire vient de crypto/rand.
func GenerateNumber() (string, error) {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	suffix := ms[len(ms)-8:]

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("génération numéro de commande: %w", err)
	}
	random := make([]byte, 6)
	for i, b := range buf {
		random[i] = base36[int(b)%len(base36)]
	}

	return fmt.Sprintf("ORD-%s-%s", suffix, random), nil
}
