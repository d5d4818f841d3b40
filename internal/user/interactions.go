package user

import (
	"context"

	"github.com/gocql/gocql"

	"soko_back_end/internal/database"
	"soko_back_end/internal/models"
)

// InteractionStore trace les évènements utilisateur ↔ produit dans
// interactions_by_user (clustering created_at DESC, les plus récents d'abord).
type InteractionStore struct {
	db *database.Databases
}

func NewInteractionStore(db *database.Databases) *InteractionStore {
	return &InteractionStore{db: db}
}

func (st *InteractionStore) Record(ctx context.Context, it models.Interaction) error {
	session, err := st.db.Users()
	if err != nil {
		return err
	}
	return session.Query(`
		INSERT INTO interactions_by_user (user_id, created_at, interaction_id, product_id, type)
		VALUES (?, ?, ?, ?, ?)
	`, it.UserID, it.CreatedAt, it.ID, it.ProductID, it.Type).WithContext(ctx).Exec()
}

func (st *InteractionStore) ByUser(ctx context.Context, userID gocql.UUID) ([]models.Interaction, error) {
	session, err := st.db.Users()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT interaction_id, product_id, type, created_at
		FROM interactions_by_user WHERE user_id = ?
	`, userID).WithContext(ctx).Iter()

	var interactions []models.Interaction
	it := models.Interaction{UserID: userID}
	for iter.Scan(&it.ID, &it.ProductID, &it.Type, &it.CreatedAt) {
		interactions = append(interactions, it)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return interactions, nil
}

// DeleteByUser purge l'historique d'interactions (cascade de suppression).
func (st *InteractionStore) DeleteByUser(ctx context.Context, userID gocql.UUID) error {
	session, err := st.db.Users()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM interactions_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Exec()
}
