package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"soko_back_end/internal/models"
	"soko_back_end/internal/utils"
)

// fakeStore est un Store en mémoire avec l'index e-mail unique.
type fakeStore struct {
	users  map[gocql.UUID]models.User
	emails map[string]gocql.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[gocql.UUID]models.User),
		emails: make(map[string]gocql.UUID),
	}
}

func (f *fakeStore) Insert(_ context.Context, u models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) Update(_ context.Context, u models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) ByID(_ context.Context, id gocql.UUID) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) ByEmail(_ context.Context, email string) (models.User, error) {
	id, ok := f.emails[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return f.users[id], nil
}

func (f *fakeStore) Delete(_ context.Context, id gocql.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeStore) ClaimEmail(_ context.Context, email string, id gocql.UUID) (bool, error) {
	if _, taken := f.emails[email]; taken {
		return false, nil
	}
	f.emails[email] = id
	return true, nil
}

func (f *fakeStore) ReleaseEmail(_ context.Context, email string) error {
	delete(f.emails, email)
	return nil
}

// fakeMailer capture les envois (les envois partent en goroutine).
type fakeMailer struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
}

func (f *fakeMailer) SendVerification(to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, to)
	return nil
}

func (f *fakeMailer) SendPasswordReset(to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, to)
	return nil
}

func (f *fakeMailer) verificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verifications)
}

// fakePurger compte les cascades, avec échec optionnel.
type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) DeleteByUser(_ context.Context, _ gocql.UUID) error {
	f.calls++
	return f.err
}

type deps struct {
	store        *fakeStore
	orders       *fakePurger
	reviews      *fakePurger
	interactions *fakePurger
	mail         *fakeMailer
}

func newTestService() (*Service, *deps) {
	d := &deps{
		store:        newFakeStore(),
		orders:       &fakePurger{},
		reviews:      &fakePurger{},
		interactions: &fakePurger{},
		mail:         &fakeMailer{},
	}
	svc := NewService(d.store, d.orders, d.reviews, d.interactions, d.mail, bcrypt.MinCost, zap.NewNop().Sugar())
	return svc, d
}

func register(t *testing.T, svc *Service, email string) models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "motdepasse",
		Name:     "Awa Diop",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc, d := newTestService()

	u := register(t, svc, "Awa@Example.COM")

	// E-mail normalisé, mot de passe jamais stocké en clair
	assert.Equal(t, "awa@example.com", u.Email)
	assert.True(t, utils.IsBcryptHash(u.Password))
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.False(t, u.EmailVerified)
	assert.NotEmpty(t, u.VerifyToken)

	// L'e-mail de vérification part en arrière-plan
	assert.Eventually(t, func() bool { return d.mail.verificationCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "DUP@example.com",
		Password: "autremotdepasse",
		Name:     "Autre",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "court@example.com",
		Password: "court",
		Name:     "Court",
	})
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	u := register(t, svc, "auth@example.com")

	t.Run("succès", func(t *testing.T) {
		got, err := svc.Authenticate(context.Background(), "auth@example.com", "motdepasse")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("mauvais mot de passe", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "auth@example.com", "mauvais")
		assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	})

	t.Run("e-mail inconnu", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "inconnu@example.com", "motdepasse")
		assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	})

	t.Run("compte désactivé", func(t *testing.T) {
		require.NoError(t, svc.SetActive(context.Background(), u.ID, false))
		_, err := svc.Authenticate(context.Background(), "auth@example.com", "motdepasse")
		assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	})
}

func TestVerifyEmail(t *testing.T) {
	svc, _ := newTestService()
	u := register(t, svc, "verif@example.com")

	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), u.Email, "mauvais-jeton"), ErrInvalidToken)

	require.NoError(t, svc.VerifyEmail(context.Background(), u.Email, u.VerifyToken))

	verified, err := svc.ByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.Empty(t, verified.VerifyToken)

	// Le jeton est à usage unique
	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), u.Email, u.VerifyToken), ErrInvalidToken)
}

func TestPasswordReset(t *testing.T) {
	svc, d := newTestService()
	u := register(t, svc, "reset@example.com")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), u.Email))

	stored, err := svc.ByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ResetToken)
	require.NotNil(t, stored.ResetExpiry)

	t.Run("jeton invalide", func(t *testing.T) {
		err := svc.ResetPassword(context.Background(), u.Email, "mauvais", "nouveaumotdepasse")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("succès puis jeton invalidé", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(context.Background(), u.Email, stored.ResetToken, "nouveaumotdepasse"))

		_, err := svc.Authenticate(context.Background(), u.Email, "nouveaumotdepasse")
		assert.NoError(t, err)
		_, err = svc.Authenticate(context.Background(), u.Email, "motdepasse")
		assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

		err = svc.ResetPassword(context.Background(), u.Email, stored.ResetToken, "encoreunautre")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("jeton expiré", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(context.Background(), u.Email))
		again, err := svc.ByID(context.Background(), u.ID)
		require.NoError(t, err)

		expired := time.Now().Add(-time.Minute)
		again.ResetExpiry = &expired
		require.NoError(t, d.store.Update(context.Background(), again))

		err = svc.ResetPassword(context.Background(), u.Email, again.ResetToken, "nimportequoi")
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("e-mail inconnu silencieux", func(t *testing.T) {
		assert.NoError(t, svc.RequestPasswordReset(context.Background(), "fantome@example.com"))
	})
}

func TestAddresses(t *testing.T) {
	svc, _ := newTestService()
	u := register(t, svc, "adresses@example.com")

	addr := func(label string) models.Address {
		return models.Address{Label: label, Street: "12 Rue du Marché", City: "Dakar", Country: "SN"}
	}

	// La première adresse devient l'adresse par défaut
	u2, err := svc.AddAddress(context.Background(), u.ID, addr("maison"))
	require.NoError(t, err)
	require.Len(t, u2.Addresses, 1)
	assert.True(t, u2.Addresses[0].IsDefault)

	// Une adresse marquée par défaut détrône la précédente
	second := addr("bureau")
	second.IsDefault = true
	u3, err := svc.AddAddress(context.Background(), u.ID, second)
	require.NoError(t, err)
	require.Len(t, u3.Addresses, 2)
	assert.False(t, u3.Addresses[0].IsDefault)
	assert.True(t, u3.Addresses[1].IsDefault)

	// Supprimer l'adresse par défaut promeut la première restante
	u4, err := svc.RemoveAddress(context.Background(), u.ID, u3.Addresses[1].ID)
	require.NoError(t, err)
	require.Len(t, u4.Addresses, 1)
	assert.True(t, u4.Addresses[0].IsDefault)
	assert.Equal(t, "maison", u4.Addresses[0].Label)
}

func TestUpdatePreferences(t *testing.T) {
	svc, _ := newTestService()
	u := register(t, svc, "prefs@example.com")

	prefs := models.Preferences{
		Categories: []string{"chaussures"},
		PriceMin:   100,
		PriceMax:   5000,
		Notifications: models.Notifications{
			Email: true,
		},
	}
	updated, err := svc.UpdatePreferences(context.Background(), u.ID, prefs)
	require.NoError(t, err)
	assert.Equal(t, prefs, updated.Preferences)
}

func TestDeleteCascades(t *testing.T) {
	svc, d := newTestService()
	u := register(t, svc, "cascade@example.com")

	require.NoError(t, svc.Delete(context.Background(), u.ID))

	assert.Equal(t, 1, d.orders.calls)
	assert.Equal(t, 1, d.reviews.calls)
	assert.Equal(t, 1, d.interactions.calls)

	_, err := svc.ByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// L'e-mail redevient disponible
	_, err = svc.Register(context.Background(), RegisterInput{
		Email:    "cascade@example.com",
		Password: "motdepasse",
		Name:     "Nouveau",
	})
	assert.NoError(t, err)
}

func TestDeleteContinuesOnPartialFailure(t *testing.T) {
	svc, d := newTestService()
	u := register(t, svc, "partiel@example.com")

	d.orders.err = errors.New("keyspace commandes indisponible")

	err := svc.Delete(context.Background(), u.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commandes")

	// Les étapes suivantes se sont exécutées malgré l'échec
	assert.Equal(t, 1, d.reviews.calls)
	assert.Equal(t, 1, d.interactions.calls)

	// L'utilisateur lui-même est supprimé
	_, lookupErr := svc.ByID(context.Background(), u.ID)
	assert.ErrorIs(t, lookupErr, ErrNotFound)
}
