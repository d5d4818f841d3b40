package database

import (
	"fmt"

	"github.com/gocql/gocql"
)

// DDL par keyspace. Les tables *_by_* sont des tables de requête
// dénormalisées ; les tables *_by_slug / *_by_sku / users_by_email /
// orders_by_number / reviews_by_user_product servent aussi de contrainte
// d'unicité via INSERT ... IF NOT EXISTS.

var usersDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id uuid PRIMARY KEY,
		email text,
		password text,
		name text,
		role text,
		is_active boolean,
		email_verified boolean,
		verify_token text,
		reset_token text,
		reset_expiry timestamp,
		addresses text,
		preferences text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (
		email text PRIMARY KEY,
		user_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS interactions_by_user (
		user_id uuid,
		created_at timestamp,
		interaction_id uuid,
		product_id uuid,
		type text,
		PRIMARY KEY ((user_id), created_at, interaction_id)
	) WITH CLUSTERING ORDER BY (created_at DESC)`,
}

var productsDDL = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		name text,
		slug text,
		sku text,
		description text,
		price double,
		original_price double,
		stock int,
		category_id uuid,
		brand text,
		image_urls list<text>,
		tags set<text>,
		attributes map<text, text>,
		is_active boolean,
		is_featured boolean,
		discount text,
		rating_average double,
		rating_count int,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS products_by_category (
		category_id uuid,
		product_id uuid,
		name text,
		price double,
		stock int,
		rating_average double,
		PRIMARY KEY ((category_id), product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS products_by_slug (
		slug text PRIMARY KEY,
		product_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS products_by_sku (
		sku text PRIMARY KEY,
		product_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		category_id uuid PRIMARY KEY,
		name text,
		slug text,
		description text,
		image_url text,
		parent_id uuid,
		sort_order int,
		is_active boolean,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS categories_by_slug (
		slug text PRIMARY KEY,
		category_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		review_id uuid PRIMARY KEY,
		product_id uuid,
		user_id uuid,
		user_name text,
		rating int,
		title text,
		comment text,
		helpful_count int,
		helpful_voters set<text>,
		verified boolean,
		approved boolean,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS reviews_by_product (
		product_id uuid,
		review_id uuid,
		user_id uuid,
		user_name text,
		rating int,
		title text,
		comment text,
		verified boolean,
		approved boolean,
		created_at timestamp,
		PRIMARY KEY ((product_id), review_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews_by_user (
		user_id uuid,
		review_id uuid,
		product_id uuid,
		rating int,
		created_at timestamp,
		PRIMARY KEY ((user_id), review_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews_by_user_product (
		user_id uuid,
		product_id uuid,
		review_id uuid,
		PRIMARY KEY ((user_id), product_id)
	)`,
}

var ordersDDL = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id uuid PRIMARY KEY,
		order_number text,
		user_id uuid,
		items text,
		shipping_address text,
		billing_address text,
		payment_method text,
		payment_status text,
		status text,
		timeline text,
		pricing text,
		tracking_number text,
		carrier text,
		estimated_delivery timestamp,
		actual_delivery timestamp,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_user (
		user_id uuid,
		created_at timestamp,
		order_id uuid,
		order_number text,
		status text,
		total double,
		items text,
		PRIMARY KEY ((user_id), created_at, order_id)
	) WITH CLUSTERING ORDER BY (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS orders_by_number (
		order_number text PRIMARY KEY,
		order_id uuid
	)`,
}

// EnsureSchema applique le DDL de chaque keyspace.
// Utilisé par cmd/bootstrap ; les rôles doivent avoir le droit CREATE.
func (db *Databases) EnsureSchema() error {
	apply := func(session *gocql.Session, keyspace string, ddl []string) error {
		for _, stmt := range ddl {
			if err := session.Query(stmt).Exec(); err != nil {
				return fmt.Errorf("DDL keyspace %s: %w", keyspace, err)
			}
		}
		db.log.Infof("✅ Schéma appliqué pour keyspace '%s'", keyspace)
		return nil
	}

	users, err := db.Users()
	if err != nil {
		return err
	}
	if err := apply(users, db.cfg.Scylla.UsersKeyspace, usersDDL); err != nil {
		return err
	}

	products, err := db.Products()
	if err != nil {
		return err
	}
	if err := apply(products, db.cfg.Scylla.ProductsKeyspace, productsDDL); err != nil {
		return err
	}

	orders, err := db.Orders()
	if err != nil {
		return err
	}
	return apply(orders, db.cfg.Scylla.OrdersKeyspace, ordersDDL)
}
