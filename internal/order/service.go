package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
)

var (
	ErrNotFound        = errors.New("commande introuvable")
	ErrDuplicateNumber = errors.New("numéro de commande déjà attribué")
)

// Store est la surface de persistance des commandes.
type Store interface {
	Insert(ctx context.Context, o models.Order) error
	Update(ctx context.Context, o models.Order) error
	ByID(ctx context.Context, id gocql.UUID) (models.Order, error)
	ByNumber(ctx context.Context, number string) (models.Order, error)
	ByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	All(ctx context.Context) ([]models.Order, error)
	// ClaimNumber réserve un numéro de commande via LWT.
	ClaimNumber(ctx context.Context, number string, id gocql.UUID) (bool, error)
	DeleteByUser(ctx context.Context, userID gocql.UUID) error
}

// MailSender envoie la confirmation de commande (best-effort).
type MailSender interface {
	SendOrderConfirmation(to string, o models.Order) error
}

// EmailLookup résout l'adresse e-mail d'un utilisateur.
type EmailLookup interface {
	EmailByID(ctx context.Context, id gocql.UUID) (string, error)
}

// CreateInput décrit une commande à créer.
type CreateInput struct {
	UserID            gocql.UUID
	Items             []models.OrderItem `validate:"required,min=1,dive"`
	ShippingAddress   models.Address
	BillingAddress    models.Address
	PaymentMethod     string `validate:"required,oneof=card mpesa paypal cash_on_delivery"`
	Discount          float64
	EstimatedDelivery *time.Time
}

// StatusStats agrège les commandes par statut.
type StatusStats struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Service gère le cycle de vie des commandes : création avec instantané
// de prix, transitions de statut avec fil de suivi, requêtes.
type Service struct {
	store    Store
	mail     MailSender
	emails   EmailLookup
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewService(store Store, mail MailSender, emails EmailLookup, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    store,
		mail:     mail,
		emails:   emails,
		validate: validator.New(),
		log:      log,
	}
}

// Create crée une commande en statut "pending" avec sa première entrée
// de fil de suivi et son instantané de prix figé.
func (s *Service) Create(ctx context.Context, input CreateInput) (models.Order, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.Order{}, fmt.Errorf("commande invalide: %w", err)
	}

	now := time.Now()
	o := models.Order{
		ID:                gocql.TimeUUID(),
		UserID:            input.UserID,
		Items:             input.Items,
		ShippingAddress:   input.ShippingAddress,
		BillingAddress:    input.BillingAddress,
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     models.PaymentPending,
		Status:            models.OrderPending,
		Pricing:           ComputeTotals(input.Items, input.Discount),
		EstimatedDelivery: input.EstimatedDelivery,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	o.Timeline = []models.TimelineEntry{{
		Status:    models.OrderPending,
		Message:   StatusMessage(models.OrderPending),
		Timestamp: now,
	}}

	// Réservation du numéro : on retente en cas de collision improbable
	for attempt := 0; attempt < 3; attempt++ {
		number, err := GenerateNumber()
		if err != nil {
			return models.Order{}, err
		}
		claimed, err := s.store.ClaimNumber(ctx, number, o.ID)
		if err != nil {
			return models.Order{}, fmt.Errorf("réservation numéro: %w", err)
		}
		if claimed {
			o.Number = number
			break
		}
	}
	if o.Number == "" {
		return models.Order{}, ErrDuplicateNumber
	}

	if err := s.store.Insert(ctx, o); err != nil {
		return models.Order{}, fmt.Errorf("création commande: %w", err)
	}
	s.log.Infof("✅ Commande créée: %s pour user %s (total %.2f)", o.Number, o.UserID, o.Pricing.Total)

	// Confirmation par e-mail, best-effort
	if s.mail != nil && s.emails != nil {
		go func(order models.Order) {
			email, err := s.emails.EmailByID(context.Background(), order.UserID)
			if err != nil {
				s.log.Warnf("⚠️ E-mail de confirmation non envoyé (utilisateur %s): %v", order.UserID, err)
				return
			}
			if err := s.mail.SendOrderConfirmation(email, order); err != nil {
				s.log.Warnf("⚠️ E-mail de confirmation non envoyé à %s: %v", email, err)
			}
		}(o)
	}

	return o, nil
}

// Transition est l'unique chemin de mutation du statut : nouveau statut,
// entrée ajoutée au fil (message fourni ou message par défaut du statut),
// horodatage de livraison posé au premier passage en "delivered".
func (s *Service) Transition(ctx context.Context, id gocql.UUID, status, message, location string) (models.Order, error) {
	o, err := s.store.ByID(ctx, id)
	if err != nil {
		return models.Order{}, ErrNotFound
	}

	applyTransition(&o, status, message, location, time.Now())

	if err := s.store.Update(ctx, o); err != nil {
		return models.Order{}, fmt.Errorf("transition commande: %w", err)
	}
	s.log.Infof("✅ Commande %s → %s", o.Number, status)
	return o, nil
}

// ByID retourne une commande par identifiant.
func (s *Service) ByID(ctx context.Context, id gocql.UUID) (models.Order, error) {
	return s.store.ByID(ctx, id)
}

// ByNumber retourne une commande par numéro.
func (s *Service) ByNumber(ctx context.Context, number string) (models.Order, error) {
	return s.store.ByNumber(ctx, number)
}

// ByUser liste les commandes d'un utilisateur, les plus récentes d'abord.
func (s *Service) ByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error) {
	return s.store.ByUser(ctx, userID)
}

// Recent liste les dernières commandes, tous utilisateurs confondus.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.Recent(ctx, limit)
}

// StatsByStatus agrège nombre et valeur totale des commandes par statut.
// Scylla ne fait pas d'agrégation : on scanne et on agrège en mémoire.
func (s *Service) StatsByStatus(ctx context.Context) (map[string]StatusStats, error) {
	orders, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]StatusStats)
	for _, o := range orders {
		st := stats[o.Status]
		st.Count++
		st.Total += o.Pricing.Total
		stats[o.Status] = st
	}
	return stats, nil
}
