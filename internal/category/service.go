package category

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
	"soko_back_end/internal/utils"
)

var (
	ErrNotFound       = errors.New("catégorie introuvable")
	ErrDuplicateSlug  = errors.New("slug de catégorie déjà utilisé")
	ErrParentNotFound = errors.New("catégorie parente introuvable")
	ErrCycle          = errors.New("cycle détecté dans l'arbre des catégories")
)

// Store est la surface de persistance consommée par le service.
type Store interface {
	Insert(ctx context.Context, cat models.Category) error
	Update(ctx context.Context, cat models.Category) error
	ByID(ctx context.Context, id gocql.UUID) (models.Category, error)
	BySlug(ctx context.Context, slug string) (models.Category, error)
	All(ctx context.Context) ([]models.Category, error)
	// ClaimSlug réserve un slug via LWT ; false si déjà pris.
	ClaimSlug(ctx context.Context, slug string, id gocql.UUID) (bool, error)
	ReleaseSlug(ctx context.Context, slug string) error
	// ProductCount compte les produits rattachés à la catégorie.
	ProductCount(ctx context.Context, id gocql.UUID) (int, error)
}

// Service gère l'arbre des catégories : slugs uniques, hiérarchie sans cycle.
type Service struct {
	store    Store
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewService(store Store, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
		log:      log,
	}
}

// Create crée une catégorie. Le slug est dérivé du nom s'il n'est pas fourni
// et réservé côté stockage (conflit → ErrDuplicateSlug).
func (s *Service) Create(ctx context.Context, cat models.Category) (models.Category, error) {
	if cat.Slug == "" {
		cat.Slug = utils.Slugify(cat.Name)
	}
	if err := s.validate.Struct(cat); err != nil {
		return models.Category{}, fmt.Errorf("catégorie invalide: %w", err)
	}

	if cat.ParentID != nil {
		if _, err := s.store.ByID(ctx, *cat.ParentID); err != nil {
			return models.Category{}, ErrParentNotFound
		}
	}

	cat.ID = gocql.TimeUUID()
	cat.CreatedAt = time.Now()

	claimed, err := s.store.ClaimSlug(ctx, cat.Slug, cat.ID)
	if err != nil {
		return models.Category{}, fmt.Errorf("réservation slug: %w", err)
	}
	if !claimed {
		return models.Category{}, ErrDuplicateSlug
	}

	if err := s.store.Insert(ctx, cat); err != nil {
		// Libère le slug réservé, sans transaction englobante
		if relErr := s.store.ReleaseSlug(ctx, cat.Slug); relErr != nil {
			s.log.Warnf("⚠️ Slug '%s' réservé mais non libéré: %v", cat.Slug, relErr)
		}
		return models.Category{}, fmt.Errorf("création catégorie: %w", err)
	}

	s.log.Infof("✅ Catégorie créée: %s (%s)", cat.Name, cat.Slug)
	return cat, nil
}

// SetParent rattache une catégorie à un parent après vérification
// d'acyclicité : on remonte la chaîne des ancêtres du nouveau parent et
// on rejette si on retombe sur la catégorie déplacée.
func (s *Service) SetParent(ctx context.Context, id gocql.UUID, parentID *gocql.UUID) error {
	cat, err := s.store.ByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if parentID != nil {
		if *parentID == id {
			return ErrCycle
		}
		ancestor := parentID
		for ancestor != nil {
			parent, err := s.store.ByID(ctx, *ancestor)
			if err != nil {
				return ErrParentNotFound
			}
			if parent.ID == id {
				return ErrCycle
			}
			ancestor = parent.ParentID
		}
	}

	cat.ParentID = parentID
	return s.store.Update(ctx, cat)
}

// Rename change le nom. Le slug n'est dérivé que s'il n'existe pas encore.
func (s *Service) Rename(ctx context.Context, id gocql.UUID, name string) (models.Category, error) {
	cat, err := s.store.ByID(ctx, id)
	if err != nil {
		return models.Category{}, ErrNotFound
	}

	cat.Name = name
	if cat.Slug == "" {
		cat.Slug = utils.Slugify(name)
		claimed, err := s.store.ClaimSlug(ctx, cat.Slug, cat.ID)
		if err != nil {
			return models.Category{}, fmt.Errorf("réservation slug: %w", err)
		}
		if !claimed {
			return models.Category{}, ErrDuplicateSlug
		}
	}

	if err := s.validate.Struct(cat); err != nil {
		return models.Category{}, fmt.Errorf("catégorie invalide: %w", err)
	}
	if err := s.store.Update(ctx, cat); err != nil {
		return models.Category{}, err
	}
	return cat, nil
}

// ByID retourne une catégorie par identifiant.
func (s *Service) ByID(ctx context.Context, id gocql.UUID) (models.Category, error) {
	return s.store.ByID(ctx, id)
}

// BySlug retourne une catégorie par slug.
func (s *Service) BySlug(ctx context.Context, slug string) (models.Category, error) {
	return s.store.BySlug(ctx, slug)
}

// Roots retourne les catégories racines, triées par ordre manuel.
func (s *Service) Roots(ctx context.Context) ([]models.Category, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	roots := make([]models.Category, 0)
	for _, c := range all {
		if c.IsRoot() {
			roots = append(roots, c)
		}
	}
	sortByOrder(roots)
	return roots, nil
}

// Children retourne les sous-catégories directes d'un nœud.
func (s *Service) Children(ctx context.Context, parentID gocql.UUID) ([]models.Category, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]models.Category, 0)
	for _, c := range all {
		if c.ParentID != nil && *c.ParentID == parentID {
			children = append(children, c)
		}
	}
	sortByOrder(children)
	return children, nil
}

// ProductCount compte les produits de la catégorie.
func (s *Service) ProductCount(ctx context.Context, id gocql.UUID) (int, error) {
	return s.store.ProductCount(ctx, id)
}

func sortByOrder(cats []models.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].SortOrder < cats[j].SortOrder
	})
}
