package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts possibles d'une commande
const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderRefunded   = "refunded"
)

// Statuts de paiement
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// ReturnWindow est la fenêtre de retour après livraison.
const ReturnWindow = 7 * 24 * time.Hour

type Order struct {
	ID                gocql.UUID      `json:"id" db:"order_id"`
	Number            string          `json:"number" db:"order_number"`
	UserID            gocql.UUID      `json:"user_id" db:"user_id"`
	Items             []OrderItem     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress   Address         `json:"shipping_address"`
	BillingAddress    Address         `json:"billing_address"`
	PaymentMethod     string          `json:"payment_method" validate:"required,oneof=card mpesa paypal cash_on_delivery"`
	PaymentStatus     string          `json:"payment_status"`
	Status            string          `json:"status"`
	Timeline          []TimelineEntry `json:"timeline"`
	Pricing           Pricing         `json:"pricing"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actual_delivery,omitempty"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem est une ligne de commande. Le prix est figé au moment de l'achat.
type OrderItem struct {
	ProductID  gocql.UUID        `json:"product_id"`
	Name       string            `json:"name,omitempty"`
	Quantity   int               `json:"quantity" validate:"min=1"`
	Price      float64           `json:"price" validate:"gte=0"`
	Attributes map[string]string `json:"attributes,omitempty"` // ex: taille, couleur
}

// TimelineEntry est une entrée immuable de l'historique de statut.
type TimelineEntry struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Pricing est l'instantané de prix figé à la création de la commande.
type Pricing struct {
	Subtotal float64 `json:"subtotal" validate:"gte=0"`
	Tax      float64 `json:"tax" validate:"gte=0"`
	Shipping float64 `json:"shipping" validate:"gte=0"`
	Discount float64 `json:"discount" validate:"gte=0"`
	Total    float64 `json:"total" validate:"gte=0"`
}

// CanBeCancelled indique si la commande peut encore être annulée.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderPending, OrderConfirmed, OrderProcessing:
		return true
	}
	return false
}

// CanBeReturned indique si la commande est encore dans la fenêtre de retour
// de 7 jours après la livraison effective.
func (o *Order) CanBeReturned() bool {
	return o.CanBeReturnedAt(time.Now())
}

// CanBeReturnedAt évalue la fenêtre de retour à un instant donné.
func (o *Order) CanBeReturnedAt(now time.Time) bool {
	if o.Status != OrderDelivered || o.ActualDelivery == nil {
		return false
	}
	return now.Sub(*o.ActualDelivery) <= ReturnWindow
}
