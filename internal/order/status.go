package order

import (
	"time"

	"soko_back_end/internal/models"
)

// Messages par défaut du fil de suivi, par statut.
var statusMessages = map[string]string{
	models.OrderPending:    "Order placed successfully",
	models.OrderConfirmed:  "Order confirmed",
	models.OrderProcessing: "Order is being processed",
	models.OrderShipped:    "Order has been shipped",
	models.OrderDelivered:  "Order delivered",
	models.OrderCancelled:  "Order cancelled",
	models.OrderRefunded:   "Order refunded",
}

// StatusMessage retourne le message par défaut d'un statut.
// Les statuts inconnus retombent sur un message générique.
func StatusMessage(status string) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Status updated"
}

// applyTransition applique une transition de statut sur la commande :
// nouveau statut, entrée de fil ajoutée (le fil est en append seul),
// et horodatage de livraison posé une seule fois au premier passage
// en "delivered". Aucune matrice de transition n'est imposée.
func applyTransition(o *models.Order, status, message, location string, now time.Time) {
	o.Status = status

	if message == "" {
		message = StatusMessage(status)
	}
	o.Timeline = append(o.Timeline, models.TimelineEntry{
		Status:    status,
		Message:   message,
		Location:  location,
		Timestamp: now,
	})

	if status == models.OrderDelivered && o.ActualDelivery == nil {
		o.ActualDelivery = &now
	}
	o.UpdatedAt = now
}
