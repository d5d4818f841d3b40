package product

import (
	"context"
	"encoding/json"

	"github.com/gocql/gocql"

	"soko_back_end/internal/database"
	"soko_back_end/internal/models"
)

const productColumns = `product_id, name, slug, sku, description, price, original_price, stock, category_id,
	brand, image_urls, tags, attributes, is_active, is_featured, discount, rating_average, rating_count,
	created_at, updated_at`

// ScyllaStore persiste les produits dans le keyspace produits.
// La remise est stockée en JSON dans une colonne texte.
type ScyllaStore struct {
	db *database.Databases
}

func NewScyllaStore(db *database.Databases) *ScyllaStore {
	return &ScyllaStore{db: db}
}

func marshalDiscount(d *models.Discount) string {
	if d == nil {
		return ""
	}
	data, _ := json.Marshal(d)
	return string(data)
}

func unmarshalDiscount(raw string) *models.Discount {
	if raw == "" {
		return nil
	}
	var d models.Discount
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil
	}
	return &d
}

func (st *ScyllaStore) Insert(ctx context.Context, p models.Product) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}

	if err := session.Query(`
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Slug, p.SKU, p.Description, p.Price, p.OriginalPrice, p.Stock, p.CategoryID,
		p.Brand, p.ImageURLs, p.Tags, p.Attributes, p.IsActive, p.IsFeatured, marshalDiscount(p.Discount),
		p.Rating.Average, p.Rating.Count, p.CreatedAt, p.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Table de requête par catégorie ; une erreur ici remonte à l'appelant
	return session.Query(`
		INSERT INTO products_by_category (category_id, product_id, name, price, stock, rating_average)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.CategoryID, p.ID, p.Name, p.Price, p.Stock, p.Rating.Average).
		WithContext(ctx).Exec()
}

func (st *ScyllaStore) Update(ctx context.Context, p models.Product) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}

	// Catégorie courante, pour purger l'ancienne ligne en cas de déplacement
	var oldCategory gocql.UUID
	hasOld := session.Query(`SELECT category_id FROM products WHERE product_id = ?`, p.ID).
		WithContext(ctx).Scan(&oldCategory) == nil

	if err := session.Query(`
		UPDATE products SET name = ?, slug = ?, description = ?, price = ?, original_price = ?, stock = ?,
			category_id = ?, brand = ?, image_urls = ?, tags = ?, attributes = ?, is_active = ?, is_featured = ?,
			discount = ?, updated_at = ?
		WHERE product_id = ?
	`, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Stock, p.CategoryID, p.Brand,
		p.ImageURLs, p.Tags, p.Attributes, p.IsActive, p.IsFeatured, marshalDiscount(p.Discount),
		p.UpdatedAt, p.ID).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	if err := session.Query(`
		UPDATE products_by_category SET name = ?, price = ?, stock = ? WHERE category_id = ? AND product_id = ?
	`, p.Name, p.Price, p.Stock, p.CategoryID, p.ID).WithContext(ctx).Exec(); err != nil {
		return err
	}

	if hasOld && oldCategory != p.CategoryID {
		return session.Query(`DELETE FROM products_by_category WHERE category_id = ? AND product_id = ?`,
			oldCategory, p.ID).WithContext(ctx).Exec()
	}
	return nil
}

func (st *ScyllaStore) Delete(ctx context.Context, p models.Product) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}

	if err := session.Query(`DELETE FROM products WHERE product_id = ?`, p.ID).WithContext(ctx).Exec(); err != nil {
		return err
	}
	return session.Query(`DELETE FROM products_by_category WHERE category_id = ? AND product_id = ?`,
		p.CategoryID, p.ID).WithContext(ctx).Exec()
}

func (st *ScyllaStore) scanOne(ctx context.Context, session *gocql.Session, where string, arg interface{}) (models.Product, error) {
	var p models.Product
	var discountJSON string
	var originalPrice float64

	err := session.Query(`SELECT `+productColumns+` FROM products WHERE `+where, arg).
		WithContext(ctx).
		Scan(&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description, &p.Price, &originalPrice, &p.Stock,
			&p.CategoryID, &p.Brand, &p.ImageURLs, &p.Tags, &p.Attributes, &p.IsActive, &p.IsFeatured,
			&discountJSON, &p.Rating.Average, &p.Rating.Count, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	// original_price null revient en zéro
	if originalPrice > 0 {
		p.OriginalPrice = &originalPrice
	}
	p.Discount = unmarshalDiscount(discountJSON)
	return p, nil
}

func (st *ScyllaStore) ByID(ctx context.Context, id gocql.UUID) (models.Product, error) {
	session, err := st.db.Products()
	if err != nil {
		return models.Product{}, err
	}
	return st.scanOne(ctx, session, "product_id = ?", id)
}

func (st *ScyllaStore) BySlug(ctx context.Context, slug string) (models.Product, error) {
	session, err := st.db.Products()
	if err != nil {
		return models.Product{}, err
	}

	var id gocql.UUID
	if err := session.Query(`SELECT product_id FROM products_by_slug WHERE slug = ?`, slug).
		WithContext(ctx).Scan(&id); err != nil {
		return models.Product{}, ErrNotFound
	}
	return st.ByID(ctx, id)
}

func (st *ScyllaStore) BySKU(ctx context.Context, sku string) (models.Product, error) {
	session, err := st.db.Products()
	if err != nil {
		return models.Product{}, err
	}

	var id gocql.UUID
	if err := session.Query(`SELECT product_id FROM products_by_sku WHERE sku = ?`, sku).
		WithContext(ctx).Scan(&id); err != nil {
		return models.Product{}, ErrNotFound
	}
	return st.ByID(ctx, id)
}

func (st *ScyllaStore) All(ctx context.Context) ([]models.Product, error) {
	session, err := st.db.Products()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()

	var products []models.Product
	var p models.Product
	var discountJSON string
	var originalPrice float64

	for iter.Scan(&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description, &p.Price, &originalPrice, &p.Stock,
		&p.CategoryID, &p.Brand, &p.ImageURLs, &p.Tags, &p.Attributes, &p.IsActive, &p.IsFeatured,
		&discountJSON, &p.Rating.Average, &p.Rating.Count, &p.CreatedAt, &p.UpdatedAt) {
		if originalPrice > 0 {
			op := originalPrice
			p.OriginalPrice = &op
		}
		p.Discount = unmarshalDiscount(discountJSON)
		products = append(products, p)
		p = models.Product{}
		discountJSON = ""
		originalPrice = 0
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return products, nil
}

func (st *ScyllaStore) ByCategory(ctx context.Context, categoryID gocql.UUID) ([]models.Product, error) {
	session, err := st.db.Products()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT product_id, name, price, stock, rating_average FROM products_by_category WHERE category_id = ?
	`, categoryID).WithContext(ctx).Iter()

	var products []models.Product
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Rating.Average) {
		p.CategoryID = categoryID
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return products, nil
}

func (st *ScyllaStore) SetStock(ctx context.Context, id gocql.UUID, stock int) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE products SET stock = ?, updated_at = toTimestamp(now()) WHERE product_id = ?`, stock, id).
		WithContext(ctx).Exec()
}

func (st *ScyllaStore) SetRating(ctx context.Context, id gocql.UUID, average float64, count int) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE products SET rating_average = ?, rating_count = ? WHERE product_id = ?`,
		average, count, id).WithContext(ctx).Exec()
}

func (st *ScyllaStore) ClaimSKU(ctx context.Context, sku string, id gocql.UUID) (bool, error) {
	session, err := st.db.Products()
	if err != nil {
		return false, err
	}
	return session.Query(`INSERT INTO products_by_sku (sku, product_id) VALUES (?, ?) IF NOT EXISTS`, sku, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (st *ScyllaStore) ReleaseSKU(ctx context.Context, sku string) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM products_by_sku WHERE sku = ?`, sku).WithContext(ctx).Exec()
}

func (st *ScyllaStore) ClaimSlug(ctx context.Context, slug string, id gocql.UUID) (bool, error) {
	session, err := st.db.Products()
	if err != nil {
		return false, err
	}
	return session.Query(`INSERT INTO products_by_slug (slug, product_id) VALUES (?, ?) IF NOT EXISTS`, slug, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (st *ScyllaStore) ReleaseSlug(ctx context.Context, slug string) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM products_by_slug WHERE slug = ?`, slug).WithContext(ctx).Exec()
}
