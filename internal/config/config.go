package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config regroupe toute la configuration consommée par la couche de données.
// Les valeurs viennent des variables d'environnement (voir .env.example).
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"` // development | production
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`      // debug | info | warn | error
	LogFile  string `envconfig:"LOG_FILE" default:"logs/soko.log"`

	// Facteur de coût bcrypt pour le hachage des mots de passe
	BcryptCost int `envconfig:"BCRYPT_COST" default:"12"`

	Scylla  ScyllaConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	SMTP    SMTPConfig
}

// ScyllaConfig décrit le cluster et les trois keyspaces (users, products, orders),
// chacun avec son propre rôle.
type ScyllaConfig struct {
	Hosts      []string      `envconfig:"SCYLLA_HOSTS" required:"true"`
	SSLEnabled bool          `envconfig:"SCYLLA_SSL_ENABLED" default:"false"`
	CACertPath string        `envconfig:"SCYLLA_SSL_CA_PATH"`
	Timeout    time.Duration `envconfig:"SCYLLA_TIMEOUT" default:"5s"`
	NumConns   int           `envconfig:"SCYLLA_NUM_CONNS" default:"20"`

	UsersKeyspace    string `envconfig:"SCYLLA_KS_USERS_KEYSPACE" default:"ks_users"`
	UsersRole        string `envconfig:"SCYLLA_KS_USERS_ROLE"`
	UsersPassword    string `envconfig:"SCYLLA_KS_USERS_PASSWORD"`
	ProductsKeyspace string `envconfig:"SCYLLA_KS_PRODUCTS_KEYSPACE" default:"ks_products"`
	ProductsRole     string `envconfig:"SCYLLA_KS_PRODUCTS_ROLE"`
	ProductsPassword string `envconfig:"SCYLLA_KS_PRODUCTS_PASSWORD"`
	OrdersKeyspace   string `envconfig:"SCYLLA_KS_ORDERS_KEYSPACE" default:"ks_orders"`
	OrdersRole       string `envconfig:"SCYLLA_KS_ORDERS_ROLE"`
	OrdersPassword   string `envconfig:"SCYLLA_KS_ORDERS_PASSWORD"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type ElasticConfig struct {
	URL      string `envconfig:"ELASTIC_URL" required:"true"`
	User     string `envconfig:"ELASTIC_USER"`
	Password string `envconfig:"ELASTIC_PASSWORD"`
}

type MinIOConfig struct {
	Endpoint  string `envconfig:"MINIO_ENDPOINT" required:"true"`
	AccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `envconfig:"MINIO_SECRET_KEY"`
	Bucket    string `envconfig:"MINIO_BUCKET" default:"soko-images"`
	UseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"noreply@soko.app"`
}

// Load charge le fichier .env puis remplit la configuration depuis
// les variables d'environnement. À appeler une seule fois au démarrage.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("configuration invalide: %w", err)
	}
	return &cfg, nil
}

// IsProduction indique si on tourne en mode production (logs fichier, etc.).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
