package user

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
	ErrNotFound     = errors.New("utilisateur introuvable")
	ErrEmailTaken   = errors.New("cet e-mail est déjà utilisé")
	ErrInvalidToken = errors.New("jeton invalide")
	ErrTokenExpired = errors.New("jeton expiré")
)

// ResetTokenTTL est la durée de validité d'un jeton de réinitialisation.
const ResetTokenTTL = time.Hour

// Store est la surface de persistance des comptes.
type Store interface {
	Insert(ctx context.Context, u models.User) error
	Update(ctx context.Context, u models.User) error
	ByID(ctx context.Context, id gocql.UUID) (models.User, error)
	ByEmail(ctx context.Context, email string) (models.User, error)
	Delete(ctx context.Context, id gocql.UUID) error
	// ClaimEmail réserve l'e-mail via LWT ; false si déjà pris.
	ClaimEmail(ctx context.Context, email string, id gocql.UUID) (bool, error)
	ReleaseEmail(ctx context.Context, email string) error
}

// TokenMailer envoie les jetons de vérification et de réinitialisation.
type TokenMailer interface {
	SendVerification(to, token string) error
	SendPasswordReset(to, token string) error
}

// Purger supprime les données rattachées à un utilisateur
// (commandes, avis, interactions) lors de la cascade de suppression.
type Purger interface {
	DeleteByUser(ctx context.Context, userID gocql.UUID) error
}

// Service gère le cycle de vie des comptes : inscription, authentification,
// jetons, adresses, préférences et suppression en cascade.
type Service struct {
	store        Store
	orders       Purger
	reviews      Purger
	interactions Purger
	mail         TokenMailer
	validate     *validator.Validate
	bcryptCost   int
	log          *zap.SugaredLogger
}

func NewService(store Store, orders, reviews, interactions Purger, mail TokenMailer, bcryptCost int, log *zap.SugaredLogger) *Service {
	return &Service{
		store:        store,
		orders:       orders,
		reviews:      reviews,
		interactions: interactions,
		mail:         mail,
		validate:     validator.New(),
		bcryptCost:   bcryptCost,
		log:          log,
	}
}

// RegisterInput décrit un compte à créer.
type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"required,max=100"`
}

// Register crée un compte. L'e-mail est normalisé en minuscules et réservé
// via users_by_email : le doublon remonte en ErrEmailTaken. Le jeton de
// vérification part par e-mail en best-effort.
func (s *Service) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	if err := s.validate.Struct(input); err != nil {
		return models.User{}, fmt.Errorf("inscription invalide: %w", err)
	}

	hash, err := utils.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hachage mot de passe: %w", err)
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return models.User{}, fmt.Errorf("génération jeton: %w", err)
	}

	now := time.Now()
	u := models.User{
		ID:          gocql.TimeUUID(),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Password:    hash,
		Name:        input.Name,
		Role:        models.RoleUser,
		IsActive:    true,
		VerifyToken: token,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	claimed, err := s.store.ClaimEmail(ctx, u.Email, u.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("réservation e-mail: %w", err)
	}
	if !claimed {
		return models.User{}, ErrEmailTaken
	}

	if err := s.store.Insert(ctx, u); err != nil {
		if relErr := s.store.ReleaseEmail(ctx, u.Email); relErr != nil {
			s.log.Warnf("⚠️ E-mail non libéré après échec d'insertion: %v", relErr)
		}
		return models.User{}, fmt.Errorf("création utilisateur: %w", err)
	}

	s.log.Infof("✅ Utilisateur créé: %s (%s)", u.ID, u.Email)

	go func() {
		if err := s.mail.SendVerification(u.Email, token); err != nil {
			s.log.Warnf("⚠️ E-mail de vérification non envoyé à %s: %v", u.Email, err)
		}
	}()

	return u, nil
}

// Authenticate vérifie l'e-mail et le mot de passe. Un compte désactivé
// est traité comme des identifiants invalides.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return models.User{}, utils.ErrInvalidCredentials
	}
	if !u.IsActive {
		return models.User{}, utils.ErrInvalidCredentials
	}
	if err := utils.VerifyPassword(password, u.Password); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// VerifyEmail valide le compte à partir du jeton envoyé à l'inscription.
func (s *Service) VerifyEmail(ctx context.Context, email, token string) error {
	u, err := s.store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrNotFound
	}
	if u.VerifyToken == "" || u.VerifyToken != token {
		return ErrInvalidToken
	}

	u.EmailVerified = true
	u.VerifyToken = ""
	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return err
	}
	s.log.Infof("✅ E-mail vérifié pour %s", u.Email)
	return nil
}

// RequestPasswordReset génère un jeton à durée de vie limitée et l'envoie
// par e-mail. Un e-mail inconnu ne provoque pas d'erreur.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil
	}

	token, err := utils.RandomToken(32)
	if err != nil {
		return fmt.Errorf("génération jeton: %w", err)
	}

	expiry := time.Now().Add(ResetTokenTTL)
	u.ResetToken = token
	u.ResetExpiry = &expiry
	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return err
	}

	go func() {
		if err := s.mail.SendPasswordReset(u.Email, token); err != nil {
			s.log.Warnf("⚠️ E-mail de réinitialisation non envoyé à %s: %v", u.Email, err)
		}
	}()
	return nil
}

// ResetPassword remplace le mot de passe si le jeton est valide et non
// expiré, puis invalide le jeton.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	u, err := s.store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrNotFound
	}
	if u.ResetToken == "" || u.ResetToken != token {
		return ErrInvalidToken
	}
	if u.ResetExpiry == nil || time.Now().After(*u.ResetExpiry) {
		return ErrTokenExpired
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("mot de passe invalide: 8 caractères minimum")
	}

	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hachage mot de passe: %w", err)
	}

	u.Password = hash
	u.ResetToken = ""
	u.ResetExpiry = nil
	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return err
	}
	s.log.Infof("✅ Mot de passe réinitialisé pour %s", u.Email)
	return nil
}

// AddAddress ajoute une adresse. La première adresse devient l'adresse par
// défaut ; une adresse marquée par défaut détrône les autres.
func (s *Service) AddAddress(ctx context.Context, userID gocql.UUID, addr models.Address) (models.User, error) {
	if err := s.validate.Struct(addr); err != nil {
		return models.User{}, fmt.Errorf("adresse invalide: %w", err)
	}

	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	addr.ID = gocql.TimeUUID()
	if len(u.Addresses) == 0 {
		addr.IsDefault = true
	}
	if addr.IsDefault {
		for i := range u.Addresses {
			u.Addresses[i].IsDefault = false
		}
	}

	u.Addresses = append(u.Addresses, addr)
	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// RemoveAddress retire une adresse. Si l'adresse par défaut disparaît,
// la première adresse restante prend le relais.
func (s *Service) RemoveAddress(ctx context.Context, userID, addressID gocql.UUID) (models.User, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	kept := u.Addresses[:0]
	removedDefault := false
	for _, a := range u.Addresses {
		if a.ID == addressID {
			removedDefault = a.IsDefault
			continue
		}
		kept = append(kept, a)
	}
	u.Addresses = kept
	if removedDefault && len(u.Addresses) > 0 {
		u.Addresses[0].IsDefault = true
	}

	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetDefaultAddress désigne l'adresse par défaut.
func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID gocql.UUID) (models.User, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	found := false
	for i := range u.Addresses {
		isTarget := u.Addresses[i].ID == addressID
		u.Addresses[i].IsDefault = isTarget
		if isTarget {
			found = true
		}
	}
	if !found {
		return models.User{}, fmt.Errorf("adresse %s introuvable", addressID)
	}

	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpdatePreferences remplace le profil de préférences.
func (s *Service) UpdatePreferences(ctx context.Context, userID gocql.UUID, prefs models.Preferences) (models.User, error) {
	if err := s.validate.Struct(prefs); err != nil {
		return models.User{}, fmt.Errorf("préférences invalides: %w", err)
	}

	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	u.Preferences = prefs
	u.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetActive bascule le drapeau d'activité du compte.
func (s *Service) SetActive(ctx context.Context, userID gocql.UUID, active bool) error {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return ErrNotFound
	}

	u.IsActive = active
	u.UpdatedAt = time.Now()
	return s.store.Update(ctx, u)
}

// ByID charge un utilisateur par identifiant.
func (s *Service) ByID(ctx context.Context, id gocql.UUID) (models.User, error) {
	return s.store.ByID(ctx, id)
}

// ByEmail charge un utilisateur par e-mail.
func (s *Service) ByEmail(ctx context.Context, email string) (models.User, error) {
	return s.store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// EmailByID résout l'e-mail d'un utilisateur (confirmations de commande).
func (s *Service) EmailByID(ctx context.Context, id gocql.UUID) (string, error) {
	u, err := s.store.ByID(ctx, id)
	if err != nil {
		return "", ErrNotFound
	}
	return u.Email, nil
}

// Delete supprime le compte et ses données rattachées : commandes, avis
// (avec recalcul des notes produit) et interactions. La cascade est en
// best-effort : chaque étape qui échoue est journalisée, les suivantes
// s'exécutent quand même, et les échecs sont agrégés dans l'erreur finale.
func (s *Service) Delete(ctx context.Context, id gocql.UUID) error {
	u, err := s.store.ByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	var errs []error
	purge := func(name string, p Purger) {
		if err := p.DeleteByUser(ctx, id); err != nil {
			s.log.Warnf("⚠️ Cascade %s incomplète pour %s: %v", name, id, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	purge("commandes", s.orders)
	purge("avis", s.reviews)
	purge("interactions", s.interactions)

	if err := s.store.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("utilisateur: %w", err))
	} else if err := s.store.ReleaseEmail(ctx, u.Email); err != nil {
		s.log.Warnf("⚠️ Index e-mail non libéré pour %s: %v", u.Email, err)
		errs = append(errs, fmt.Errorf("index e-mail: %w", err))
	}

	if len(errs) == 0 {
		s.log.Infof("🗑️ Utilisateur %s supprimé (cascade complète)", id)
	}
	return errors.Join(errs...)
}
