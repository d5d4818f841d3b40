package order

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var numberFormat = regexp.MustCompile(`^ORD-\d{8}-[0-9A-Z]{6}$`)

func TestGenerateNumber(t *testing.T) {
	n, err := GenerateNumber()
	require.NoError(t, err)
	assert.Regexp(t, numberFormat, n)
}

func TestGenerateNumberDiffers(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n, err := GenerateNumber()
		require.NoError(t, err)
		assert.False(t, seen[n], "numéro dupliqué: %s", n)
		seen[n] = true
	}
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Order placed successfully", StatusMessage("pending"))
	assert.Equal(t, "Order delivered", StatusMessage("delivered"))
	assert.Equal(t, "Status updated", StatusMessage("statut-inconnu"))
}
