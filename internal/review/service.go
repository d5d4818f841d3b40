package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
)

var (
	ErrNotFound  = errors.New("avis introuvable")
	ErrDuplicate = errors.New("un avis existe déjà pour ce couple utilisateur/produit")
)

// Store est la surface de persistance des avis.
type Store interface {
	Insert(ctx context.Context, r models.Review) error
	Update(ctx context.Context, r models.Review) error
	Delete(ctx context.Context, r models.Review) error
	ByID(ctx context.Context, id gocql.UUID) (models.Review, error)
	ByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error)
	ByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error)
	// Claim réserve le couple (utilisateur, produit) via LWT ; false si un avis existe déjà.
	Claim(ctx context.Context, userID, productID, reviewID gocql.UUID) (bool, error)
	Release(ctx context.Context, userID, productID gocql.UUID) error
	AddHelpfulVote(ctx context.Context, r models.Review, voter string) error
}

// RatingSetter persiste l'agrégat de note sur le produit.
type RatingSetter interface {
	SetRating(ctx context.Context, id gocql.UUID, average float64, count int) error
}

// PurchaseChecker vérifie l'historique de commandes pour le badge achat vérifié.
type PurchaseChecker interface {
	HasDeliveredProduct(ctx context.Context, userID, productID gocql.UUID) (bool, error)
}

// Service gère les avis produits. Après chaque création, mise à jour ou
// suppression, l'agrégat de note du produit est entièrement recalculé
// depuis l'ensemble courant des avis approuvés — de façon synchrone,
// dans la même opération logique.
type Service struct {
	store    Store
	products RatingSetter
	orders   PurchaseChecker
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewService(store Store, products RatingSetter, orders PurchaseChecker, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    store,
		products: products,
		orders:   orders,
		validate: validator.New(),
		log:      log,
	}
}

// Create crée un avis. Un seul avis par couple (utilisateur, produit) :
// le conflit remonte en ErrDuplicate depuis la couche de stockage.
// Le badge "achat vérifié" est calculé une seule fois, à la création.
func (s *Service) Create(ctx context.Context, r models.Review) (models.Review, error) {
	if err := s.validate.Struct(r); err != nil {
		return models.Review{}, fmt.Errorf("avis invalide: %w", err)
	}

	r.ID = gocql.TimeUUID()
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.HelpfulCount = 0
	r.HelpfulVoters = nil
	r.Approved = true

	verified, err := s.orders.HasDeliveredProduct(ctx, r.UserID, r.ProductID)
	if err != nil {
		s.log.Warnf("⚠️ Vérification d'achat impossible pour %s/%s: %v", r.UserID, r.ProductID, err)
	}
	r.Verified = verified

	claimed, err := s.store.Claim(ctx, r.UserID, r.ProductID, r.ID)
	if err != nil {
		return models.Review{}, fmt.Errorf("réservation avis: %w", err)
	}
	if !claimed {
		return models.Review{}, ErrDuplicate
	}

	if err := s.store.Insert(ctx, r); err != nil {
		if relErr := s.store.Release(ctx, r.UserID, r.ProductID); relErr != nil {
			s.log.Warnf("⚠️ Réservation d'avis non libérée: %v", relErr)
		}
		return models.Review{}, fmt.Errorf("création avis: %w", err)
	}

	s.log.Infof("⭐ Avis créé: %s pour produit %s (note: %d/5)", r.ID, r.ProductID, r.Rating)

	if err := s.RecomputeProductRating(ctx, r.ProductID); err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// Update modifie la note, le titre ou le commentaire d'un avis existant,
// puis recalcule l'agrégat du produit.
func (s *Service) Update(ctx context.Context, id gocql.UUID, rating int, title, comment string) (models.Review, error) {
	r, err := s.store.ByID(ctx, id)
	if err != nil {
		return models.Review{}, ErrNotFound
	}

	r.Rating = rating
	r.Title = title
	r.Comment = comment
	r.UpdatedAt = time.Now()

	if err := s.validate.Struct(r); err != nil {
		return models.Review{}, fmt.Errorf("avis invalide: %w", err)
	}
	if err := s.store.Update(ctx, r); err != nil {
		return models.Review{}, err
	}

	if err := s.RecomputeProductRating(ctx, r.ProductID); err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// SetApproved bascule le drapeau de modération puis recalcule l'agrégat.
func (s *Service) SetApproved(ctx context.Context, id gocql.UUID, approved bool) error {
	r, err := s.store.ByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	r.Approved = approved
	r.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, r); err != nil {
		return err
	}
	return s.RecomputeProductRating(ctx, r.ProductID)
}

// Delete supprime un avis, libère le couple (utilisateur, produit) et
// recalcule l'agrégat du produit.
func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	r, err := s.store.ByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, r); err != nil {
		return err
	}
	if err := s.store.Release(ctx, r.UserID, r.ProductID); err != nil {
		s.log.Warnf("⚠️ Réservation d'avis non libérée pour %s/%s: %v", r.UserID, r.ProductID, err)
	}

	return s.RecomputeProductRating(ctx, r.ProductID)
}

// MarkHelpful ajoute un vote "utile", idempotent par utilisateur :
// un second vote du même utilisateur ne change rien.
func (s *Service) MarkHelpful(ctx context.Context, reviewID gocql.UUID, userID string) error {
	r, err := s.store.ByID(ctx, reviewID)
	if err != nil {
		return ErrNotFound
	}

	if r.HasVoted(userID) {
		return nil
	}
	return s.store.AddHelpfulVote(ctx, r, userID)
}

// ByProduct liste les avis d'un produit.
func (s *Service) ByProduct(ctx context.Context, productID gocql.UUID) ([]models.Review, error) {
	return s.store.ByProduct(ctx, productID)
}

// ByUser liste les avis d'un utilisateur.
func (s *Service) ByUser(ctx context.Context, userID gocql.UUID) ([]models.Review, error) {
	return s.store.ByUser(ctx, userID)
}

// Histogram calcule la répartition des avis approuvés sur l'échelle 1–5.
func (s *Service) Histogram(ctx context.Context, productID gocql.UUID) (models.RatingHistogram, error) {
	reviews, err := s.store.ByProduct(ctx, productID)
	if err != nil {
		return models.RatingHistogram{}, err
	}

	h := models.RatingHistogram{
		Counts:      map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Percentages: map[int]float64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	for _, r := range reviews {
		if r.Approved && r.Rating >= 1 && r.Rating <= 5 {
			h.Counts[r.Rating]++
			h.Total++
		}
	}
	if h.Total > 0 {
		for star, n := range h.Counts {
			h.Percentages[star] = math.Round(float64(n)/float64(h.Total)*1000) / 10
		}
	}
	return h, nil
}

// DeleteByUser supprime tous les avis d'un utilisateur (cascade de
// suppression de compte) en recalculant chaque produit touché.
func (s *Service) DeleteByUser(ctx context.Context, userID gocql.UUID) error {
	reviews, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return err
	}

	var errs []error
	for _, r := range reviews {
		if err := s.Delete(ctx, r.ID); err != nil {
			errs = append(errs, fmt.Errorf("avis %s: %w", r.ID, err))
		}
	}
	return errors.Join(errs...)
}

// RecomputeProductRating recalcule l'agrégat de note depuis zéro :
// tous les avis approuvés du produit, moyenne arrondie à une décimale,
// persistée sur le produit. Lit l'état POSTÉRIEUR à l'écriture déclenchante.
func (s *Service) RecomputeProductRating(ctx context.Context, productID gocql.UUID) error {
	reviews, err := s.store.ByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("lecture avis pour recalcul: %w", err)
	}

	sum, count := 0, 0
	for _, r := range reviews {
		if r.Approved {
			sum += r.Rating
			count++
		}
	}

	average := 0.0
	if count > 0 {
		average = math.Round(float64(sum)/float64(count)*10) / 10
	}

	if err := s.products.SetRating(ctx, productID, average, count); err != nil {
		return fmt.Errorf("persistance agrégat de note: %w", err)
	}
	s.log.Infof("✅ Note produit %s recalculée: %.1f (%d avis)", productID, average, count)
	return nil
}
