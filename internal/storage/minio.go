package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"soko_back_end/internal/config"
)

// Service stocke les images produits dans MinIO et génère des URLs
// signées pour la lecture côté catalogue.
type Service struct {
	client *minio.Client
	bucket string
	public string // préfixe d'URL publique des objets
}

func NewService(client *minio.Client, cfg config.MinIOConfig) *Service {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return &Service{
		client: client,
		bucket: cfg.Bucket,
		public: fmt.Sprintf("%s://%s/%s/", scheme, cfg.Endpoint, cfg.Bucket),
	}
}

// UploadProductImage dépose une image produit sous une clé unique
// (l'extension du nom d'origine est conservée) et retourne son URL brute.
func (s *Service) UploadProductImage(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	key := "products/" + uuid.NewString() + path.Ext(name)
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size,
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", err
	}

	return s.public + key, nil
}

// SignedURL signe une URL d'objet avec expiration. L'entrée peut être
// l'URL complète stockée sur le produit ou la clé relative au bucket.
func (s *Service) SignedURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	key := strings.TrimPrefix(objectPath, s.public)

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, duration, make(url.Values))
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// SignedURLs signe une liste d'URLs, en ignorant celles qui échouent.
func (s *Service) SignedURLs(ctx context.Context, paths []string, duration time.Duration) []string {
	signed := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if u, err := s.SignedURL(ctx, p, duration); err == nil {
			signed = append(signed, u)
		}
	}
	return signed
}
