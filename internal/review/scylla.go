package review

import (
	"context"

	"github.com/gocql/gocql"

	"soko_back_end/internal/database"
	"soko_back_end/internal/models"
)

// ScyllaStore persiste les avis dans le keyspace produits, avec les
// tables de requête reviews_by_product et reviews_by_user, et la table
// reviews_by_user_product comme contrainte d'unicité du couple.
type ScyllaStore struct {
	db *database.Databases
}

func NewScyllaStore(db *database.Databases) *ScyllaStore {
	return &ScyllaStore{db: db}
}

func (st *ScyllaStore) Insert(ctx context.Context, r models.Review) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}

	if err := session.Query(`
		INSERT INTO reviews (review_id, product_id, user_id, user_name, rating, title, comment,
			helpful_count, helpful_voters, verified, approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ProductID, r.UserID, r.UserName, r.Rating, r.Title, r.Comment,
		r.HelpfulCount, r.HelpfulVoters, r.Verified, r.Approved, r.CreatedAt, r.UpdatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	if err := session.Query(`
		INSERT INTO reviews_by_product (product_id, review_id, user_id, user_name, rating, title, comment, verified, approved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ProductID, r.ID, r.UserID, r.UserName, r.Rating, r.Title, r.Comment, r.Verified, r.Approved, r.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		return err
	}

	return session.Query(`
		INSERT INTO reviews_by_user (user_id, review_id, product_id, rating, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.UserID, r.ID, r.ProductID, r.Rating, r.CreatedAt).WithContext(ctx).Exec()
}

func (st *ScyllaStore) Update(ctx context.Context, r models.Review) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}

	if err := session.Query(`
		UPDATE reviews SET rating = ?, title = ?, comment = ?, approved = ?, updated_at = ?
		WHERE review_id = ?
	`, r.Rating, r.Title, r.Comment, r.Approved, r.UpdatedAt, r.ID).WithContext(ctx).Exec(); err != nil {
		return err
	}

	if err := session.Query(`
		UPDATE reviews_by_product SET rating = ?, title = ?, comment = ?, approved = ?
		WHERE product_id = ? AND review_id = ?
	`, r.Rating, r.Title, r.Comment, r.Approved, r.ProductID, r.ID).WithContext(ctx).Exec(); err != nil {
		return err
	}

	return session.Query(`
		UPDATE reviews_by_user SET rating = ? WHERE user_id = ? AND review_id = ?
	`, r.Rating, r.UserID, r.ID).WithContext(ctx).Exec()
}

func (st *ScyllaStore) Delete(ctx context.Context, r models.Review) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}

	if err := session.Query(`DELETE FROM reviews WHERE review_id = ?`, r.ID).WithContext(ctx).Exec(); err != nil {
		return err
	}
	if err := session.Query(`DELETE FROM reviews_by_product WHERE product_id = ? AND review_id = ?`, r.ProductID, r.ID).
		WithContext(ctx).Exec(); err != nil {
		return err
	}
	return session.Query(`DELETE FROM reviews_by_user WHERE user_id = ? AND review_id = ?`, r.UserID, r.ID).
		WithContext(ctx).Exec()
}

func (st *ScyllaStore) ByID(ctx context.Context, id gocql.UUID) (models.Review, error) {
	session, err := st.db.Products()
	if err != nil {
		return models.Review{}, err
	}

	r := models.Review{ID: id}
	err = session.Query(`
		SELECT product_id, user_id, user_name, rating, title, comment, helpful_count, helpful_voters,
			verified, approved, created_at, updated_at
		FROM reviews WHERE review_id = ?
	`, id).WithContext(ctx).
		Scan(&r.ProductID, &r.UserID, &r.UserName, &r.Rating, &r.Title, &r.Comment, &r.HelpfulCount,
			&r.HelpfulVoters, &r.Verified, &r.Approved, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return models.Review{}, ErrNotFound
	}
	return r, nil
}

func (st *ScyllaStore) ByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error) {
	session, err := st.db.Products()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT review_id, user_id, user_name, rating, title, comment, verified, approved, created_at
		FROM reviews_by_product WHERE product_id = ?
	`, productID).WithContext(ctx).Iter()

	var reviews []models.Review
	var r models.Review
	for iter.Scan(&r.ID, &r.UserID, &r.UserName, &r.Rating, &r.Title, &r.Comment, &r.Verified, &r.Approved, &r.CreatedAt) {
		r.ProductID = productID
		reviews = append(reviews, r)
		r = models.Review{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (st *ScyllaStore) ByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error) {
	session, err := st.db.Products()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT review_id, product_id, rating, created_at FROM reviews_by_user WHERE user_id = ?
	`, userID).WithContext(ctx).Iter()

	var reviews []models.Review
	var r models.Review
	for iter.Scan(&r.ID, &r.ProductID, &r.Rating, &r.CreatedAt) {
		r.UserID = userID
		reviews = append(reviews, r)
		r = models.Review{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Claim réserve le couple (utilisateur, produit) via une transaction légère.
func (st *ScyllaStore) Claim(ctx context.Context, userID, productID, reviewID gocql.UUID) (bool, error) {
	session, err := st.db.Products()
	if err != nil {
		return false, err
	}
	return session.Query(`
		INSERT INTO reviews_by_user_product (user_id, product_id, review_id) VALUES (?, ?, ?) IF NOT EXISTS
	`, userID, productID, reviewID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (st *ScyllaStore) Release(ctx context.Context, userID, productID gocql.UUID) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM reviews_by_user_product WHERE user_id = ? AND product_id = ?`, userID, productID).
		WithContext(ctx).Exec()
}

// AddHelpfulVote ajoute le votant à l'ensemble et incrémente le compteur.
func (st *ScyllaStore) AddHelpfulVote(ctx context.Context, r models.Review, voter string) error {
	session, err := st.db.Products()
	if err != nil {
		return err
	}
	return session.Query(`
		UPDATE reviews SET helpful_voters = helpful_voters + ?, helpful_count = ? WHERE review_id = ?
	`, []string{voter}, r.HelpfulCount+1, r.ID).WithContext(ctx).Exec()
}
