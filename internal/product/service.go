package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
	"soko_back_end/internal/utils"
)

var (
	ErrNotFound          = errors.New("produit introuvable")
	ErrDuplicateSKU      = errors.New("SKU déjà utilisé")
	ErrDuplicateSlug     = errors.New("slug de produit déjà utilisé")
	ErrInsufficientStock = errors.New("stock insuffisant")
)

// Durée de validité des URLs signées renvoyées au catalogue.
const signedURLTTL = 24 * time.Hour

// Store est la surface de persistance produits.
type Store interface {
	Insert(ctx context.Context, p models.Product) error
	// Update met aussi à jour les tables de requête ; un changement de
	// catégorie retire la ligne de l'ancienne catégorie.
	Update(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, p models.Product) error
	ByID(ctx context.Context, id gocql.UUID) (models.Product, error)
	BySlug(ctx context.Context, slug string) (models.Product, error)
	BySKU(ctx context.Context, sku string) (models.Product, error)
	All(ctx context.Context) ([]models.Product, error)
	ByCategory(ctx context.Context, categoryID gocql.UUID) ([]models.Product, error)
	SetStock(ctx context.Context, id gocql.UUID, stock int) error
	SetRating(ctx context.Context, id gocql.UUID, average float64, count int) error
	ClaimSKU(ctx context.Context, sku string, id gocql.UUID) (bool, error)
	ReleaseSKU(ctx context.Context, sku string) error
	ClaimSlug(ctx context.Context, slug string, id gocql.UUID) (bool, error)
	ReleaseSlug(ctx context.Context, slug string) error
}

// Indexer est le moteur de recherche plein texte (Elasticsearch).
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product)
	RemoveProduct(ctx context.Context, id string)
	SearchProducts(ctx context.Context, query string) ([]map[string]interface{}, error)
}

// Counters porte les compteurs de vues et de ventes (Redis).
type Counters interface {
	IncrViews(ctx context.Context, id gocql.UUID) (int64, error)
	IncrSales(ctx context.Context, id gocql.UUID, qty int) (int64, error)
	Views(ctx context.Context, id gocql.UUID) (int64, error)
	Sales(ctx context.Context, id gocql.UUID) (int64, error)
}

// InteractionRecorder trace les évènements utilisateur ↔ produit.
type InteractionRecorder interface {
	Record(ctx context.Context, it models.Interaction) error
}

// URLSigner signe les URLs d'images (MinIO).
type URLSigner interface {
	SignedURLs(ctx context.Context, paths []string, duration time.Duration) []string
}

// Service gère le catalogue : création, stock, agrégat de note,
// recherche et compteurs.
type Service struct {
	store        Store
	search       Indexer
	counters     Counters
	interactions InteractionRecorder
	signer       URLSigner
	validate     *validator.Validate
	log          *zap.SugaredLogger
}

func NewService(store Store, search Indexer, counters Counters, interactions InteractionRecorder, signer URLSigner, log *zap.SugaredLogger) *Service {
	return &Service{
		store:        store,
		search:       search,
		counters:     counters,
		interactions: interactions,
		signer:       signer,
		validate:     validator.New(),
		log:          log,
	}
}

// Create crée un produit : SKU stocké en majuscules, slug dérivé du nom
// s'il n'est pas fourni, unicité SKU et slug garantie côté stockage.
func (s *Service) Create(ctx context.Context, p models.Product) (models.Product, error) {
	p.SKU = strings.ToUpper(p.SKU)
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
	}
	if err := s.validate.Struct(p); err != nil {
		return models.Product{}, fmt.Errorf("produit invalide: %w", err)
	}

	p.ID = gocql.TimeUUID()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	claimed, err := s.store.ClaimSKU(ctx, p.SKU, p.ID)
	if err != nil {
		return models.Product{}, fmt.Errorf("réservation SKU: %w", err)
	}
	if !claimed {
		return models.Product{}, ErrDuplicateSKU
	}

	claimed, err = s.store.ClaimSlug(ctx, p.Slug, p.ID)
	if err != nil || !claimed {
		if relErr := s.store.ReleaseSKU(ctx, p.SKU); relErr != nil {
			s.log.Warnf("⚠️ SKU '%s' réservé mais non libéré: %v", p.SKU, relErr)
		}
		if err != nil {
			return models.Product{}, fmt.Errorf("réservation slug: %w", err)
		}
		return models.Product{}, ErrDuplicateSlug
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("création produit: %w", err)
	}

	// Indexation Elasticsearch en arrière-plan
	if s.search != nil {
		go s.search.IndexProduct(context.Background(), p)
	}

	s.log.Infof("✅ Produit créé: %s (SKU %s)", p.Name, p.SKU)
	return p, nil
}

// Update met à jour un produit existant. Le slug n'est dérivé que s'il
// manque encore ; SKU et slug existants ne changent pas ici.
func (s *Service) Update(ctx context.Context, p models.Product) (models.Product, error) {
	existing, err := s.store.ByID(ctx, p.ID)
	if err != nil {
		return models.Product{}, ErrNotFound
	}

	p.SKU = existing.SKU
	p.Slug = existing.Slug
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Name)
		claimed, err := s.store.ClaimSlug(ctx, p.Slug, p.ID)
		if err != nil {
			return models.Product{}, fmt.Errorf("réservation slug: %w", err)
		}
		if !claimed {
			return models.Product{}, ErrDuplicateSlug
		}
	}

	if err := s.validate.Struct(p); err != nil {
		return models.Product{}, fmt.Errorf("produit invalide: %w", err)
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, p); err != nil {
		return models.Product{}, err
	}

	if s.search != nil {
		go s.search.IndexProduct(context.Background(), p)
	}
	return p, nil
}

// Delete supprime un produit, libère son SKU et son slug, et le retire
// de l'index de recherche en arrière-plan.
func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	p, err := s.store.ByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, p); err != nil {
		return fmt.Errorf("suppression produit: %w", err)
	}
	if err := s.store.ReleaseSKU(ctx, p.SKU); err != nil {
		s.log.Warnf("⚠️ SKU '%s' non libéré: %v", p.SKU, err)
	}
	if err := s.store.ReleaseSlug(ctx, p.Slug); err != nil {
		s.log.Warnf("⚠️ Slug '%s' non libéré: %v", p.Slug, err)
	}

	if s.search != nil {
		go s.search.RemoveProduct(context.Background(), p.ID.String())
	}

	s.log.Infof("🗑️ Produit supprimé: %s (SKU %s)", p.Name, p.SKU)
	return nil
}

// AddStock ajoute du stock sans condition.
func (s *Service) AddStock(ctx context.Context, id gocql.UUID, qty int) (int, error) {
	p, err := s.store.ByID(ctx, id)
	if err != nil {
		return 0, ErrNotFound
	}

	newStock := p.Stock + qty
	if err := s.store.SetStock(ctx, id, newStock); err != nil {
		return 0, err
	}
	s.log.Infof("✅ Stock mis à jour pour %s: %d -> %d", p.Name, p.Stock, newStock)
	return newStock, nil
}

// ReduceStock décrémente le stock. Si la quantité demandée dépasse le
// stock courant, l'opération échoue et le stock reste inchangé.
func (s *Service) ReduceStock(ctx context.Context, id gocql.UUID, qty int) (int, error) {
	p, err := s.store.ByID(ctx, id)
	if err != nil {
		return 0, ErrNotFound
	}

	if qty > p.Stock {
		return p.Stock, fmt.Errorf("%w: demandé %d, disponible %d", ErrInsufficientStock, qty, p.Stock)
	}

	newStock := p.Stock - qty
	if err := s.store.SetStock(ctx, id, newStock); err != nil {
		return p.Stock, err
	}
	s.log.Infof("✅ Stock mis à jour pour %s: %d -> %d", p.Name, p.Stock, newStock)
	return newStock, nil
}

// SetRating persiste l'agrégat de note recalculé par le service des avis.
func (s *Service) SetRating(ctx context.Context, id gocql.UUID, average float64, count int) error {
	return s.store.SetRating(ctx, id, average, count)
}

// ByID retourne un produit, images signées.
func (s *Service) ByID(ctx context.Context, id gocql.UUID) (models.Product, error) {
	p, err := s.store.ByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	s.signImages(ctx, &p)
	return p, nil
}

// BySlug retourne un produit par slug SEO.
func (s *Service) BySlug(ctx context.Context, slug string) (models.Product, error) {
	p, err := s.store.BySlug(ctx, slug)
	if err != nil {
		return models.Product{}, err
	}
	s.signImages(ctx, &p)
	return p, nil
}

// BySKU retourne un produit par SKU (insensible à la casse).
func (s *Service) BySKU(ctx context.Context, sku string) (models.Product, error) {
	return s.store.BySKU(ctx, strings.ToUpper(sku))
}

// Active liste les produits actifs.
func (s *Service) Active(ctx context.Context) ([]models.Product, error) {
	return s.filtered(ctx, func(p models.Product) bool { return p.IsActive })
}

// Featured liste les produits mis en avant.
func (s *Service) Featured(ctx context.Context) ([]models.Product, error) {
	return s.filtered(ctx, func(p models.Product) bool { return p.IsActive && p.IsFeatured })
}

func (s *Service) filtered(ctx context.Context, keep func(models.Product) bool) ([]models.Product, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(all))
	for _, p := range all {
		if keep(p) {
			s.signImages(ctx, &p)
			out = append(out, p)
		}
	}
	return out, nil
}

// ByCategory liste les produits d'une catégorie via la table dédiée.
func (s *Service) ByCategory(ctx context.Context, categoryID gocql.UUID) ([]models.Product, error) {
	return s.store.ByCategory(ctx, categoryID)
}

// Search interroge Elasticsearch en priorité, puis retombe sur un scan
// ScyllaDB filtré en mémoire si l'index est vide ou indisponible.
func (s *Service) Search(ctx context.Context, query string) ([]models.Product, error) {
	if s.search != nil {
		if results, err := s.search.SearchProducts(ctx, query); err == nil && len(results) > 0 {
			return s.hydrate(ctx, results), nil
		}
	}

	// Fallback : scan complet + filtre en mémoire (non optimal, mais
	// ScyllaDB ne fait pas de recherche plein texte native)
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Product
	for _, p := range all {
		if containsIgnoreCase(p.Name, query) || containsIgnoreCase(p.Description, query) || containsTagsIgnoreCase(p.Tags, query) {
			s.signImages(ctx, &p)
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordView incrémente le compteur de vues et trace l'interaction.
func (s *Service) RecordView(ctx context.Context, productID, userID gocql.UUID) {
	if s.counters != nil {
		if _, err := s.counters.IncrViews(ctx, productID); err != nil {
			s.log.Warnf("⚠️ Compteur de vues indisponible pour %s: %v", productID, err)
		}
	}
	if s.interactions != nil {
		it := models.Interaction{
			ID:        gocql.TimeUUID(),
			UserID:    userID,
			ProductID: productID,
			Type:      models.InteractionView,
			CreatedAt: time.Now(),
		}
		if err := s.interactions.Record(ctx, it); err != nil {
			s.log.Warnf("⚠️ Interaction non enregistrée: %v", err)
		}
	}
}

// RecordSale incrémente le compteur de ventes (appelé après une commande).
func (s *Service) RecordSale(ctx context.Context, productID gocql.UUID, qty int) {
	if s.counters == nil {
		return
	}
	if _, err := s.counters.IncrSales(ctx, productID, qty); err != nil {
		s.log.Warnf("⚠️ Compteur de ventes indisponible pour %s: %v", productID, err)
	}
}

// Views retourne le compteur de vues.
func (s *Service) Views(ctx context.Context, productID gocql.UUID) (int64, error) {
	if s.counters == nil {
		return 0, nil
	}
	return s.counters.Views(ctx, productID)
}

// Sales retourne le compteur de ventes.
func (s *Service) Sales(ctx context.Context, productID gocql.UUID) (int64, error) {
	if s.counters == nil {
		return 0, nil
	}
	return s.counters.Sales(ctx, productID)
}

func (s *Service) signImages(ctx context.Context, p *models.Product) {
	if s.signer == nil || len(p.ImageURLs) == 0 {
		return
	}
	p.ImageURLs = s.signer.SignedURLs(ctx, p.ImageURLs, signedURLTTL)
}

// hydrate recharge les produits complets depuis les hits Elasticsearch.
func (s *Service) hydrate(ctx context.Context, hits []map[string]interface{}) []models.Product {
	out := make([]models.Product, 0, len(hits))
	for _, hit := range hits {
		idStr, _ := hit["id"].(string)
		id, err := gocql.ParseUUID(idStr)
		if err != nil {
			continue
		}
		p, err := s.store.ByID(ctx, id)
		if err != nil {
			continue
		}
		s.signImages(ctx, &p)
		out = append(out, p)
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsTagsIgnoreCase(tags []string, query string) bool {
	for _, tag := range tags {
		if containsIgnoreCase(tag, query) {
			return true
		}
	}
	return false
}
