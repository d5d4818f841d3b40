package user

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"

	"soko_back_end/internal/database"
	"soko_back_end/internal/models"
)

// ScyllaStore persiste les comptes dans le keyspace utilisateurs.
// Adresses et préférences sont stockées en JSON dans des colonnes texte.
// Les lectures chaudes passent par les prepared statements de Databases.
type ScyllaStore struct {
	db *database.Databases
}

func NewScyllaStore(db *database.Databases) *ScyllaStore {
	return &ScyllaStore{db: db}
}

const userColumns = `email, password, name, role, is_active, email_verified,
	verify_token, reset_token, reset_expiry, addresses, preferences, created_at, updated_at`

func (st *ScyllaStore) Insert(ctx context.Context, u models.User) error {
	session, err := st.db.Users()
	if err != nil {
		return err
	}

	addresses, _ := json.Marshal(u.Addresses)
	preferences, _ := json.Marshal(u.Preferences)

	return session.Query(`
		INSERT INTO users (user_id, `+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Password, u.Name, u.Role, u.IsActive, u.EmailVerified,
		u.VerifyToken, u.ResetToken, u.ResetExpiry, string(addresses), string(preferences),
		u.CreatedAt, u.UpdatedAt).WithContext(ctx).Exec()
}

func (st *ScyllaStore) Update(ctx context.Context, u models.User) error {
	session, err := st.db.Users()
	if err != nil {
		return err
	}

	addresses, _ := json.Marshal(u.Addresses)
	preferences, _ := json.Marshal(u.Preferences)

	return session.Query(`
		UPDATE users SET password = ?, name = ?, role = ?, is_active = ?, email_verified = ?,
			verify_token = ?, reset_token = ?, reset_expiry = ?, addresses = ?, preferences = ?, updated_at = ?
		WHERE user_id = ?
	`, u.Password, u.Name, u.Role, u.IsActive, u.EmailVerified,
		u.VerifyToken, u.ResetToken, u.ResetExpiry, string(addresses), string(preferences),
		u.UpdatedAt, u.ID).WithContext(ctx).Exec()
}

func (st *ScyllaStore) ByID(ctx context.Context, id gocql.UUID) (models.User, error) {
	u := models.User{ID: id}
	var addresses, preferences string
	var resetExpiry time.Time
	var scanErr error

	if p := st.db.InitPrepared(); p != nil {
		scanErr = p.GetUserByID.Bind(id).WithContext(ctx).Scan(
			&u.Email, &u.Password, &u.Name, &u.Role, &u.IsActive, &u.EmailVerified,
			&u.VerifyToken, &u.ResetToken, &resetExpiry, &addresses, &preferences,
			&u.CreatedAt, &u.UpdatedAt)
	} else {
		session, err := st.db.Users()
		if err != nil {
			return models.User{}, err
		}
		scanErr = session.Query(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).
			WithContext(ctx).Scan(
			&u.Email, &u.Password, &u.Name, &u.Role, &u.IsActive, &u.EmailVerified,
			&u.VerifyToken, &u.ResetToken, &resetExpiry, &addresses, &preferences,
			&u.CreatedAt, &u.UpdatedAt)
	}
	if scanErr != nil {
		return models.User{}, ErrNotFound
	}

	// Une colonne reset_expiry null revient en zéro
	if !resetExpiry.IsZero() {
		u.ResetExpiry = &resetExpiry
	}
	json.Unmarshal([]byte(addresses), &u.Addresses)
	json.Unmarshal([]byte(preferences), &u.Preferences)
	return u, nil
}

func (st *ScyllaStore) ByEmail(ctx context.Context, email string) (models.User, error) {
	var id gocql.UUID
	var scanErr error

	if p := st.db.InitPrepared(); p != nil {
		scanErr = p.GetUserByEmail.Bind(email).WithContext(ctx).Scan(&id)
	} else {
		session, err := st.db.Users()
		if err != nil {
			return models.User{}, err
		}
		scanErr = session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
			WithContext(ctx).Scan(&id)
	}
	if scanErr != nil {
		return models.User{}, ErrNotFound
	}
	return st.ByID(ctx, id)
}

func (st *ScyllaStore) Delete(ctx context.Context, id gocql.UUID) error {
	session, err := st.db.Users()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM users WHERE user_id = ?`, id).WithContext(ctx).Exec()
}

func (st *ScyllaStore) ClaimEmail(ctx context.Context, email string, id gocql.UUID) (bool, error) {
	if p := st.db.InitPrepared(); p != nil {
		return p.InsertUserByEmail.Bind(email, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	}

	session, err := st.db.Users()
	if err != nil {
		return false, err
	}
	return session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`, email, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
}

func (st *ScyllaStore) ReleaseEmail(ctx context.Context, email string) error {
	session, err := st.db.Users()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM users_by_email WHERE email = ?`, email).WithContext(ctx).Exec()
}
