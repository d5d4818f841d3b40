package order

import "soko_back_end/internal/models"

// Règles de prix fixes de la boutique.
const (
	TaxRate               = 0.16   // TVA 16 %
	FreeShippingThreshold = 5000.0 // livraison offerte au-dessus de ce sous-total
	ShippingFee           = 200.0
)

// ComputeTotals fige l'instantané de prix d'une commande :
// sous-total, TVA, livraison, total. La remise est reprise telle quelle
// de l'instantané existant, jamais recalculée ici.
func ComputeTotals(items []models.OrderItem, discount float64) models.Pricing {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	tax := subtotal * TaxRate

	shipping := ShippingFee
	if subtotal > FreeShippingThreshold {
		shipping = 0
	}

	return models.Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal + tax + shipping - discount,
	}
}
