package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanBeCancelled(t *testing.T) {
	cases := map[string]bool{
		OrderPending:    true,
		OrderConfirmed:  true,
		OrderProcessing: true,
		OrderShipped:    false,
		OrderDelivered:  false,
		OrderCancelled:  false,
		OrderRefunded:   false,
	}

	for status, want := range cases {
		o := Order{Status: status}
		assert.Equal(t, want, o.CanBeCancelled(), "statut %s", status)
	}
}

func TestCanBeReturnedAt(t *testing.T) {
	delivered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("dans la fenêtre", func(t *testing.T) {
		o := Order{Status: OrderDelivered, ActualDelivery: &delivered}
		assert.True(t, o.CanBeReturnedAt(delivered.Add(3*24*time.Hour)))
	})

	t.Run("exactement 7 jours", func(t *testing.T) {
		o := Order{Status: OrderDelivered, ActualDelivery: &delivered}
		assert.True(t, o.CanBeReturnedAt(delivered.Add(ReturnWindow)))
	})

	t.Run("7 jours et 1 ms", func(t *testing.T) {
		o := Order{Status: OrderDelivered, ActualDelivery: &delivered}
		assert.False(t, o.CanBeReturnedAt(delivered.Add(ReturnWindow+time.Millisecond)))
	})

	t.Run("non livrée", func(t *testing.T) {
		o := Order{Status: OrderShipped, ActualDelivery: &delivered}
		assert.False(t, o.CanBeReturnedAt(delivered.Add(time.Hour)))
	})

	t.Run("livrée sans horodatage", func(t *testing.T) {
		o := Order{Status: OrderDelivered}
		assert.False(t, o.CanBeReturnedAt(delivered))
	})
}

func TestDefaultAddress(t *testing.T) {
	u := User{Addresses: []Address{
		{Label: "maison"},
		{Label: "bureau", IsDefault: true},
	}}
	addr := u.DefaultAddress()
	assert.NotNil(t, addr)
	assert.Equal(t, "bureau", addr.Label)

	assert.Nil(t, (&User{}).DefaultAddress())
}
