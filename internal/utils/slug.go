package utils

import "strings"

// Slugify dérive un slug URL à partir d'un nom d'affichage :
// minuscules, toute suite de caractères hors [a-z0-9] devient un seul
// tiret, tirets de tête et de queue supprimés.
// Ex: "Men's Running Shoes!!" → "men-s-running-shoes"
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}
