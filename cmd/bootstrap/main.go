package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soko_back_end/internal/config"
	"soko_back_end/internal/database"
	"soko_back_end/internal/logger"
	"soko_back_end/internal/search"
)

// bootstrap prépare l'infrastructure de la couche de données :
// connexions, schéma CQL, index Elasticsearch, prepared statements.
// Il reste ensuite en attente de SIGINT/SIGTERM et ferme proprement.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration: %v", err)
	}

	zlog := logger.New(cfg)
	defer zlog.Sync()

	zlog.Infof("🚀 Bootstrap de la couche de données (env: %s)", cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	db, err := database.Connect(ctx, cfg, zlog)
	cancel()
	if err != nil {
		zlog.Fatalf("❌ Connexion aux bases de données: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		zlog.Fatalf("❌ Application du schéma: %v", err)
	}
	zlog.Info("✅ Schéma CQL appliqué sur les trois keyspaces")

	es := search.NewService(db.Elastic, zlog)
	esCtx, esCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := es.EnsureIndex(esCtx); err != nil {
		zlog.Fatalf("❌ Index Elasticsearch: %v", err)
	}
	esCancel()

	if p := db.InitPrepared(); p == nil {
		zlog.Warn("⚠️ Prepared statements non initialisés")
	}

	zlog.Info("✅ Bootstrap terminé — en attente (Ctrl+C pour quitter)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	zlog.Infof("🛑 Signal %s reçu, fermeture...", sig)
}
