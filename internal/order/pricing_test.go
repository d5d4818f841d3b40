package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"soko_back_end/internal/models"
)

func TestComputeTotals(t *testing.T) {
	t.Run("sous-total sous le seuil de livraison offerte", func(t *testing.T) {
		items := []models.OrderItem{
			{Quantity: 2, Price: 300},
			{Quantity: 1, Price: 400},
		}
		p := ComputeTotals(items, 0)

		assert.Equal(t, 1000.0, p.Subtotal)
		assert.InDelta(t, 160.0, p.Tax, 1e-9)
		assert.Equal(t, 200.0, p.Shipping)
		assert.InDelta(t, 1360.0, p.Total, 1e-9)
	})

	t.Run("livraison offerte au-dessus du seuil", func(t *testing.T) {
		items := []models.OrderItem{{Quantity: 1, Price: 6000}}
		p := ComputeTotals(items, 0)

		assert.Equal(t, 0.0, p.Shipping)
		assert.InDelta(t, 6960.0, p.Total, 1e-9)
	})

	t.Run("exactement au seuil, livraison payante", func(t *testing.T) {
		items := []models.OrderItem{{Quantity: 1, Price: 5000}}
		p := ComputeTotals(items, 0)

		assert.Equal(t, 200.0, p.Shipping)
	})

	t.Run("remise reprise telle quelle", func(t *testing.T) {
		items := []models.OrderItem{{Quantity: 1, Price: 1000}}
		p := ComputeTotals(items, 100)

		assert.Equal(t, 100.0, p.Discount)
		assert.InDelta(t, 1000+160+200-100, p.Total, 1e-9)
	})

	t.Run("panier vide", func(t *testing.T) {
		p := ComputeTotals(nil, 0)

		assert.Equal(t, 0.0, p.Subtotal)
		assert.Equal(t, 200.0, p.Shipping)
	})
}
