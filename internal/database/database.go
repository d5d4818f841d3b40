package database

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"soko_back_end/internal/config"
)

// ScyllaKeyspaceConfig décrit la connexion à un keyspace (hôtes, rôle, pool).
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

// ScyllaManager gère une session gocql par keyspace.
type ScyllaManager struct {
	sessions map[string]*gocql.Session
	configs  map[string]ScyllaKeyspaceConfig
	mu       sync.Mutex
	log      *zap.SugaredLogger
}

// Databases porte toutes les connexions de la couche de données avec un
// cycle de vie explicite (Connect/Close) — pas d'état global.
type Databases struct {
	Scylla  *ScyllaManager
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client

	cfg          *config.Config
	log          *zap.SugaredLogger
	prepared     *Prepared
	preparedOnce sync.Once
}

// Connect initialise ScyllaDB (multi-keyspaces), Redis, Elasticsearch et MinIO.
// Toute erreur de connexion est fatale pour l'initialisation et remonte à l'appelant.
func Connect(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Databases, error) {
	db := &Databases{cfg: cfg, log: log}

	// 1. ScyllaDB (multi-keyspaces)
	if err := db.initScylla(); err != nil {
		return nil, fmt.Errorf("échec initialisation ScyllaDB: %w", err)
	}

	// 2. Redis
	if err := db.connectRedis(ctx); err != nil {
		return nil, err
	}

	// 3. Elasticsearch
	if err := db.connectElastic(); err != nil {
		return nil, err
	}

	// 4. MinIO
	if err := db.connectMinIO(ctx); err != nil {
		return nil, err
	}

	log.Info("✅ Toutes les bases de données sont connectées")
	return db, nil
}

// Close ferme proprement toutes les connexions.
func (db *Databases) Close() {
	if db.Scylla != nil {
		db.Scylla.CloseAll()
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			db.log.Warnf("⚠️ Erreur fermeture Redis: %v", err)
		}
	}
	db.log.Info("🔌 Connexions fermées")
}

// =============================================
// SCYLLA DB (Multi-Keyspaces avec SSL & Rôles)
// =============================================

func (db *Databases) initScylla() error {
	db.Scylla = &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  scyllaConfigs(db.cfg.Scylla),
		log:      db.log,
	}

	for keyspace := range db.Scylla.configs {
		if _, err := db.Scylla.Session(keyspace); err != nil {
			return fmt.Errorf("échec initialisation keyspace %s: %w", keyspace, err)
		}
	}
	return nil
}

func scyllaConfigs(sc config.ScyllaConfig) map[string]ScyllaKeyspaceConfig {
	configs := make(map[string]ScyllaKeyspaceConfig)

	add := func(keyspace, role, password string) {
		if keyspace == "" {
			return
		}
		configs[keyspace] = ScyllaKeyspaceConfig{
			Hosts:       sc.Hosts,
			Keyspace:    keyspace,
			Username:    role,
			Password:    password,
			SSLEnabled:  sc.SSLEnabled,
			CACertPath:  sc.CACertPath,
			Timeout:     sc.Timeout,
			NumConns:    sc.NumConns,
			Consistency: gocql.Quorum,
		}
	}

	add(sc.UsersKeyspace, sc.UsersRole, sc.UsersPassword)
	add(sc.ProductsKeyspace, sc.ProductsRole, sc.ProductsPassword)
	add(sc.OrdersKeyspace, sc.OrdersRole, sc.OrdersPassword)

	return configs
}

func createScyllaCluster(cfg ScyllaKeyspaceConfig) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = cfg.Consistency
	cluster.Timeout = cfg.Timeout
	cluster.NumConns = cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: cfg.Username,
		Password: cfg.Password,
	}

	if cfg.SSLEnabled && cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("impossible de lire le certificat CA: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("impossible de parser le certificat CA")
		}
		cluster.SslOpts = &gocql.SslOptions{CaPath: cfg.CACertPath}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	return cluster, nil
}

// Session retourne la session d'un keyspace, en la (re)créant si nécessaire.
func (sm *ScyllaManager) Session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cfg, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, exists := sm.sessions[keyspace]; exists {
		if err := session.Query("SELECT now() FROM system.local").Exec(); err == nil {
			return session, nil
		}
		// Session invalide : on la recrée
		session.Close()
	}

	cluster, err := createScyllaCluster(cfg)
	if err != nil {
		return nil, fmt.Errorf("erreur configuration cluster pour %s: %w", keyspace, err)
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	sm.log.Infof("✅ Nouvelle session ScyllaDB pour keyspace '%s' (rôle: %s)", keyspace, cfg.Username)

	return session, nil
}

// CloseAll ferme toutes les sessions ScyllaDB.
func (sm *ScyllaManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		sm.log.Infof("🔌 Session ScyllaDB fermée pour keyspace '%s'", keyspace)
	}
}

// =============================================
// HELPERS POUR ACCÈS FACILITÉ AUX SESSIONS
// =============================================

// Users retourne la session du keyspace utilisateurs.
func (db *Databases) Users() (*gocql.Session, error) {
	return db.Scylla.Session(db.cfg.Scylla.UsersKeyspace)
}

// Products retourne la session du keyspace produits.
func (db *Databases) Products() (*gocql.Session, error) {
	return db.Scylla.Session(db.cfg.Scylla.ProductsKeyspace)
}

// Orders retourne la session du keyspace commandes.
func (db *Databases) Orders() (*gocql.Session, error) {
	return db.Scylla.Session(db.cfg.Scylla.OrdersKeyspace)
}

// =============================================
// REDIS
// =============================================

func (db *Databases) connectRedis(ctx context.Context) error {
	db.Redis = redis.NewClient(&redis.Options{
		Addr:     db.cfg.Redis.Host,
		Password: db.cfg.Redis.Password,
		DB:       db.cfg.Redis.DB,
	})

	if err := db.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("erreur connexion Redis: %w", err)
	}
	db.log.Info("✅ Connecté à Redis")
	return nil
}

// =============================================
// ELASTICSEARCH
// =============================================

func (db *Databases) connectElastic() error {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{db.cfg.Elastic.URL},
		Username:  db.cfg.Elastic.User,
		Password:  db.cfg.Elastic.Password,
	})
	if err != nil {
		return fmt.Errorf("erreur création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return fmt.Errorf("erreur connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	db.Elastic = client
	db.log.Info("✅ Connecté à Elasticsearch")
	return nil
}

// =============================================
// MINIO
// =============================================

func (db *Databases) connectMinIO(ctx context.Context) error {
	client, err := minio.New(db.cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(db.cfg.MinIO.AccessKey, db.cfg.MinIO.SecretKey, ""),
		Secure: db.cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("erreur connexion MinIO: %w", err)
	}

	bucket := db.cfg.MinIO.Bucket
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("erreur vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("erreur création bucket MinIO: %w", err)
		}
		db.log.Infof("🪣 Bucket créé : %s", bucket)
	}

	db.MinIO = client
	db.log.Infof("✅ Connecté à MinIO : %s", db.cfg.MinIO.Endpoint)
	return nil
}
