package category

import (
	"context"

	"github.com/gocql/gocql"

	"soko_back_end/internal/database"
	"soko_back_end/internal/models"
)

// ScyllaStore persiste les catégories dans le keyspace produits.
type ScyllaStore struct {
	db *database.Databases
}

func NewScyllaStore(db *database.Databases) *ScyllaStore {
	return &ScyllaStore{db: db}
}

func (st *ScyllaStore) Insert(ctx context.Context, cat models.Category) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`
		INSERT INTO categories (category_id, name, slug, description, image_url, parent_id, sort_order, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cat.ID, cat.Name, cat.Slug, cat.Description, cat.ImageURL, cat.ParentID, cat.SortOrder, cat.IsActive, cat.CreatedAt).
		WithContext(ctx).Exec()
}

func (st *ScyllaStore) Update(ctx context.Context, cat models.Category) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`
		UPDATE categories SET name = ?, slug = ?, description = ?, image_url = ?, parent_id = ?, sort_order = ?, is_active = ?
		WHERE category_id = ?
	`, cat.Name, cat.Slug, cat.Description, cat.ImageURL, cat.ParentID, cat.SortOrder, cat.IsActive, cat.ID).
		WithContext(ctx).Exec()
}

func (st *ScyllaStore) ByID(ctx context.Context, id gocql.UUID) (models.Category, error) {
	session, err := st.db.Products()
	if err != nil {
		return models.Category{}, err
	}

	cat := models.Category{ID: id}
	var parentID gocql.UUID
	err = session.Query(`
		SELECT name, slug, description, image_url, parent_id, sort_order, is_active, created_at
		FROM categories WHERE category_id = ?
	`, id).WithContext(ctx).
		Scan(&cat.Name, &cat.Slug, &cat.Description, &cat.ImageURL, &parentID, &cat.SortOrder, &cat.IsActive, &cat.CreatedAt)
	if err != nil {
		return models.Category{}, ErrNotFound
	}
	// parent_id null revient en UUID zéro
	if parentID != (gocql.UUID{}) {
		cat.ParentID = &parentID
	}
	return cat, nil
}

func (st *ScyllaStore) BySlug(ctx context.Context, slug string) (models.Category, error) {
	session, err := st.db.Products()
	if err != nil {
		return models.Category{}, err
	}

	var id gocql.UUID
	if err := session.Query(`SELECT category_id FROM categories_by_slug WHERE slug = ?`, slug).
		WithContext(ctx).Scan(&id); err != nil {
		return models.Category{}, ErrNotFound
	}
	return st.ByID(ctx, id)
}

func (st *ScyllaStore) All(ctx context.Context) ([]models.Category, error) {
	session, err := st.db.Products()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT category_id, name, slug, description, image_url, parent_id, sort_order, is_active, created_at
		FROM categories
	`).WithContext(ctx).Iter()

	var cats []models.Category
	var c models.Category
	var parentID gocql.UUID
	for iter.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &parentID, &c.SortOrder, &c.IsActive, &c.CreatedAt) {
		if parentID != (gocql.UUID{}) {
			p := parentID
			c.ParentID = &p
		}
		cats = append(cats, c)
		c = models.Category{}
		parentID = gocql.UUID{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return cats, nil
}

// ClaimSlug réserve le slug via une transaction légère.
func (st *ScyllaStore) ClaimSlug(ctx context.Context, slug string, id gocql.UUID) (bool, error) {
	session, err := st.db.Products()
	if err != nil {
		return false, err
	}

	applied, err := session.Query(`INSERT INTO categories_by_slug (slug, category_id) VALUES (?, ?) IF NOT EXISTS`, slug, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (st *ScyllaStore) ReleaseSlug(ctx context.Context, slug string) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM categories_by_slug WHERE slug = ?`, slug).WithContext(ctx).Exec()
}

func (st *ScyllaStore) ProductCount(ctx context.Context, id gocql.UUID) (int, error) {
	session, err := st.db.Products()
	if err != nil {
		return 0, err
	}

	var count int
	err = session.Query(`SELECT COUNT(*) FROM products_by_category WHERE category_id = ?`, id).
		WithContext(ctx).Scan(&count)
	return count, err
}
