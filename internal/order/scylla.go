package order

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"soko_back_end/internal/database"
	"soko_back_end/internal/models"
)

// ScyllaStore persiste les commandes dans le keyspace commandes.
// Les lignes, le fil de suivi, les adresses et l'instantané de prix
// sont stockés en JSON dans des colonnes texte.
type ScyllaStore struct {
	db *database.Databases
}

func NewScyllaStore(db *database.Databases) *ScyllaStore {
	return &ScyllaStore{db: db}
}

func toJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func (st *ScyllaStore) Insert(ctx context.Context, o models.Order) error {
	session, err := st.db.Orders()
	if err != nil {
		return err
	}

	if err := session.Query(`
		INSERT INTO orders (order_id, order_number, user_id, items, shipping_address, billing_address,
			payment_method, payment_status, status, timeline, pricing, tracking_number, carrier,
			estimated_delivery, actual_delivery, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Number, o.UserID, toJSON(o.Items), toJSON(o.ShippingAddress), toJSON(o.BillingAddress),
		o.PaymentMethod, o.PaymentStatus, o.Status, toJSON(o.Timeline), toJSON(o.Pricing),
		o.TrackingNumber, o.Carrier, o.EstimatedDelivery, o.ActualDelivery, o.CreatedAt, o.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	return session.Query(`
		INSERT INTO orders_by_user (user_id, created_at, order_id, order_number, status, total, items)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.UserID, o.CreatedAt, o.ID, o.Number, o.Status, o.Pricing.Total, toJSON(o.Items)).
		WithContext(ctx).Exec()
}

func (st *ScyllaStore) Update(ctx context.Context, o models.Order) error {
	session, err := st.db.Orders()
	if err != nil {
		return err
	}

	if err := session.Query(`
		UPDATE orders SET status = ?, payment_status = ?, timeline = ?, tracking_number = ?, carrier = ?,
			estimated_delivery = ?, actual_delivery = ?, updated_at = ?
		WHERE order_id = ?
	`, o.Status, o.PaymentStatus, toJSON(o.Timeline), o.TrackingNumber, o.Carrier,
		o.EstimatedDelivery, o.ActualDelivery, o.UpdatedAt, o.ID).WithContext(ctx).Exec(); err != nil {
		return err
	}

	return session.Query(`
		UPDATE orders_by_user SET status = ? WHERE user_id = ? AND created_at = ? AND order_id = ?
	`, o.Status, o.UserID, o.CreatedAt, o.ID).WithContext(ctx).Exec()
}

// scanOrder lit une ligne de la table orders. Les timestamps optionnels
// reviennent en zéro quand la colonne est null.
func scanOrder(scan func(dest ...interface{}) error) (models.Order, error) {
	var o models.Order
	var items, shipping, billing, timeline, pricing string
	var estimated, actual time.Time

	if err := scan(&o.ID, &o.Number, &o.UserID, &items, &shipping, &billing,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &timeline, &pricing,
		&o.TrackingNumber, &o.Carrier, &estimated, &actual,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return models.Order{}, err
	}

	if !estimated.IsZero() {
		o.EstimatedDelivery = &estimated
	}
	if !actual.IsZero() {
		o.ActualDelivery = &actual
	}
	json.Unmarshal([]byte(items), &o.Items)
	json.Unmarshal([]byte(shipping), &o.ShippingAddress)
	json.Unmarshal([]byte(billing), &o.BillingAddress)
	json.Unmarshal([]byte(timeline), &o.Timeline)
	json.Unmarshal([]byte(pricing), &o.Pricing)
	return o, nil
}

const orderColumns = `order_id, order_number, user_id, items, shipping_address, billing_address,
	payment_method, payment_status, status, timeline, pricing, tracking_number, carrier,
	estimated_delivery, actual_delivery, created_at, updated_at`

func (st *ScyllaStore) ByID(ctx context.Context, id gocql.UUID) (models.Order, error) {
	session, err := st.db.Orders()
	if err != nil {
		return models.Order{}, err
	}

	q := session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx)
	o, err := scanOrder(q.Scan)
	if err != nil {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (st *ScyllaStore) ByNumber(ctx context.Context, number string) (models.Order, error) {
	session, err := st.db.Orders()
	if err != nil {
		return models.Order{}, err
	}

	var id gocql.UUID
	if err := session.Query(`SELECT order_id FROM orders_by_number WHERE order_number = ?`, number).
		WithContext(ctx).Scan(&id); err != nil {
		return models.Order{}, ErrNotFound
	}
	return st.ByID(ctx, id)
}

// ByUser liste les commandes d'un utilisateur via orders_by_user
// (clustering created_at DESC : les plus récentes d'abord).
func (st *ScyllaStore) ByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	session, err := st.db.Orders()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(ids))
	for _, oid := range ids {
		o, err := st.ByID(ctx, oid)
		if err != nil {
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (st *ScyllaStore) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	orders, err := st.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (st *ScyllaStore) All(ctx context.Context) ([]models.Order, error) {
	session, err := st.db.Orders()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()

	var orders []models.Order
	var o models.Order
	var items, shipping, billing, timeline, pricing string
	var estimated, actual time.Time

	for iter.Scan(&o.ID, &o.Number, &o.UserID, &items, &shipping, &billing,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &timeline, &pricing,
		&o.TrackingNumber, &o.Carrier, &estimated, &actual,
		&o.CreatedAt, &o.UpdatedAt) {
		if !estimated.IsZero() {
			e := estimated
			o.EstimatedDelivery = &e
		}
		if !actual.IsZero() {
			a := actual
			o.ActualDelivery = &a
		}
		json.Unmarshal([]byte(items), &o.Items)
		json.Unmarshal([]byte(shipping), &o.ShippingAddress)
		json.Unmarshal([]byte(billing), &o.BillingAddress)
		json.Unmarshal([]byte(timeline), &o.Timeline)
		json.Unmarshal([]byte(pricing), &o.Pricing)
		orders = append(orders, o)
		o = models.Order{}
		estimated, actual = time.Time{}, time.Time{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (st *ScyllaStore) ClaimNumber(ctx context.Context, number string, id gocql.UUID) (bool, error) {
	session, err := st.db.Orders()
	if err != nil {
		return false, err
	}
	return session.Query(`INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?) IF NOT EXISTS`, number, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

// HasDeliveredProduct vérifie qu'une commande livrée de l'utilisateur
// contient le produit — utilisé pour le badge "achat vérifié".
func (st *ScyllaStore) HasDeliveredProduct(ctx context.Context, userID, productID gocql.UUID) (bool, error) {
	session, err := st.db.Orders()
	if err != nil {
		return false, err
	}

	iter := session.Query(`SELECT status, items FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var status, itemsJSON string
	found := false
	for iter.Scan(&status, &itemsJSON) {
		if status != models.OrderDelivered {
			continue
		}
		var items []models.OrderItem
		if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
			continue
		}
		for _, item := range items {
			if item.ProductID == productID {
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return false, err
	}
	return found, nil
}

// DeleteByUser supprime toutes les commandes d'un utilisateur
// (cascade de suppression de compte).
func (st *ScyllaStore) DeleteByUser(ctx context.Context, userID gocql.UUID) error {
	session, err := st.db.Orders()
	if err != nil {
		return err
	}

	orders, err := st.ByUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, o := range orders {
		if err := session.Query(`DELETE FROM orders WHERE order_id = ?`, o.ID).WithContext(ctx).Exec(); err != nil {
			return err
		}
		if err := session.Query(`DELETE FROM orders_by_number WHERE order_number = ?`, o.Number).
			WithContext(ctx).Exec(); err != nil {
			return err
		}
	}

	return session.Query(`DELETE FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Exec()
}
