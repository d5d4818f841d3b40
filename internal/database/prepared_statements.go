package database

import (
	"github.com/gocql/gocql"
)

// Prepared regroupe les requêtes fréquentes du keyspace users,
// préparées une seule fois par instance de Databases.
type Prepared struct {
	GetUserByEmail    *gocql.Query
	GetUserByID       *gocql.Query
	InsertUserByEmail *gocql.Query
}

// InitPrepared initialise (au premier appel) puis retourne les prepared
// statements du keyspace users.
func (db *Databases) InitPrepared() *Prepared {
	db.preparedOnce.Do(func() {
		session, err := db.Users()
		if err != nil {
			db.log.Warnf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}

		db.prepared = &Prepared{
			GetUserByEmail: session.Query("SELECT user_id FROM users_by_email WHERE email = ?"),
			GetUserByID: session.Query(`SELECT email, password, name, role, is_active, email_verified,
				verify_token, reset_token, reset_expiry, addresses, preferences, created_at, updated_at
				FROM users WHERE user_id = ?`),
			InsertUserByEmail: session.Query("INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS"),
		}
		db.log.Info("✅ Prepared statements initialisés")
	})
	return db.prepared
}
