package review

import (
	"context"
	"errors"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
)

type pairKey struct {
	user    gocql.UUID
	product gocql.UUID
}

// fakeStore est un Store en mémoire reproduisant la contrainte d'unicité
// du couple (utilisateur, produit).
type fakeStore struct {
	reviews map[gocql.UUID]models.Review
	pairs   map[pairKey]gocql.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reviews: make(map[gocql.UUID]models.Review),
		pairs:   make(map[pairKey]gocql.UUID),
	}
}

func (f *fakeStore) Insert(_ context.Context, r models.Review) error {
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeStore) Update(_ context.Context, r models.Review) error {
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeStore) Delete(_ context.Context, r models.Review) error {
	delete(f.reviews, r.ID)
	return nil
}

func (f *fakeStore) ByID(_ context.Context, id gocql.UUID) (models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return models.Review{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ByProduct(_ context.Context, productID gocql.UUID) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ByUser(_ context.Context, userID gocql.UUID) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Claim(_ context.Context, userID, productID, reviewID gocql.UUID) (bool, error) {
	key := pairKey{userID, productID}
	if _, taken := f.pairs[key]; taken {
		return false, nil
	}
	f.pairs[key] = reviewID
	return true, nil
}

func (f *fakeStore) Release(_ context.Context, userID, productID gocql.UUID) error {
	delete(f.pairs, pairKey{userID, productID})
	return nil
}

func (f *fakeStore) AddHelpfulVote(_ context.Context, r models.Review, voter string) error {
	stored := f.reviews[r.ID]
	stored.HelpfulVoters = append(stored.HelpfulVoters, voter)
	stored.HelpfulCount = r.HelpfulCount + 1
	f.reviews[r.ID] = stored
	return nil
}

// fakeRatings capture le dernier agrégat poussé vers le produit.
type fakeRatings struct {
	average float64
	count   int
}

func (f *fakeRatings) SetRating(_ context.Context, _ gocql.UUID, average float64, count int) error {
	f.average = average
	f.count = count
	return nil
}

type fakeOrders struct {
	delivered bool
	err       error
}

func (f *fakeOrders) HasDeliveredProduct(_ context.Context, _, _ gocql.UUID) (bool, error) {
	return f.delivered, f.err
}

func newTestService(store Store, ratings RatingSetter, orders PurchaseChecker) *Service {
	return NewService(store, ratings, orders, zap.NewNop().Sugar())
}

func newReview(productID gocql.UUID, rating int) models.Review {
	return models.Review{
		ProductID: productID,
		UserID:    gocql.TimeUUID(),
		UserName:  "Awa",
		Rating:    rating,
		Title:     "Très bien",
	}
}

func TestCreateRecomputesRating(t *testing.T) {
	store := newFakeStore()
	ratings := &fakeRatings{}
	svc := newTestService(store, ratings, &fakeOrders{})
	product := gocql.TimeUUID()

	_, err := svc.Create(context.Background(), newReview(product, 4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, ratings.average)
	assert.Equal(t, 1, ratings.count)

	_, err = svc.Create(context.Background(), newReview(product, 2))
	require.NoError(t, err)
	assert.Equal(t, 3.0, ratings.average)
	assert.Equal(t, 2, ratings.count)
}

func TestCreateDuplicatePair(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRatings{}, &fakeOrders{})
	product := gocql.TimeUUID()

	r := newReview(product, 5)
	_, err := svc.Create(context.Background(), r)
	require.NoError(t, err)

	// Même utilisateur, même produit : refusé
	r.Title = "Deuxième tentative"
	_, err = svc.Create(context.Background(), r)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateVerifiedBadge(t *testing.T) {
	t.Run("commande livrée trouvée", func(t *testing.T) {
		svc := newTestService(newFakeStore(), &fakeRatings{}, &fakeOrders{delivered: true})
		r, err := svc.Create(context.Background(), newReview(gocql.TimeUUID(), 5))
		require.NoError(t, err)
		assert.True(t, r.Verified)
	})

	t.Run("vérification en échec, avis créé quand même", func(t *testing.T) {
		svc := newTestService(newFakeStore(), &fakeRatings{}, &fakeOrders{err: errors.New("keyspace indisponible")})
		r, err := svc.Create(context.Background(), newReview(gocql.TimeUUID(), 5))
		require.NoError(t, err)
		assert.False(t, r.Verified)
	})
}

func TestCreateRejectsInvalidRating(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRatings{}, &fakeOrders{})

	_, err := svc.Create(context.Background(), newReview(gocql.TimeUUID(), 0))
	assert.Error(t, err)
	_, err = svc.Create(context.Background(), newReview(gocql.TimeUUID(), 6))
	assert.Error(t, err)
}

func TestDeleteRecomputesRating(t *testing.T) {
	store := newFakeStore()
	ratings := &fakeRatings{}
	svc := newTestService(store, ratings, &fakeOrders{})
	product := gocql.TimeUUID()

	r4, err := svc.Create(context.Background(), newReview(product, 4))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), newReview(product, 2))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), r4.ID))
	assert.Equal(t, 2.0, ratings.average)
	assert.Equal(t, 1, ratings.count)

	// Le couple est libéré : le même utilisateur peut reposter
	_, err = svc.Create(context.Background(), models.Review{
		ProductID: product, UserID: r4.UserID, UserName: "Awa", Rating: 3,
	})
	assert.NoError(t, err)
}

func TestUnapprovedExcludedFromAggregate(t *testing.T) {
	store := newFakeStore()
	ratings := &fakeRatings{}
	svc := newTestService(store, ratings, &fakeOrders{})
	product := gocql.TimeUUID()

	r, err := svc.Create(context.Background(), newReview(product, 5))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), newReview(product, 1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, ratings.average)

	require.NoError(t, svc.SetApproved(context.Background(), r.ID, false))
	assert.Equal(t, 1.0, ratings.average)
	assert.Equal(t, 1, ratings.count)
}

func TestRecomputeRoundsToOneDecimal(t *testing.T) {
	store := newFakeStore()
	ratings := &fakeRatings{}
	svc := newTestService(store, ratings, &fakeOrders{})
	product := gocql.TimeUUID()

	// 5 + 4 + 4 = 13 / 3 = 4.333... → 4.3
	for _, rating := range []int{5, 4, 4} {
		_, err := svc.Create(context.Background(), newReview(product, rating))
		require.NoError(t, err)
	}
	assert.Equal(t, 4.3, ratings.average)
	assert.Equal(t, 3, ratings.count)
}

func TestMarkHelpfulIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRatings{}, &fakeOrders{})

	r, err := svc.Create(context.Background(), newReview(gocql.TimeUUID(), 4))
	require.NoError(t, err)

	voter := gocql.TimeUUID().String()
	require.NoError(t, svc.MarkHelpful(context.Background(), r.ID, voter))
	require.NoError(t, svc.MarkHelpful(context.Background(), r.ID, voter))

	stored, err := store.ByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.HelpfulCount)
	assert.Len(t, stored.HelpfulVoters, 1)

	// Un autre votant compte
	require.NoError(t, svc.MarkHelpful(context.Background(), r.ID, "autre-votant"))
	stored, _ = store.ByID(context.Background(), r.ID)
	assert.Equal(t, 2, stored.HelpfulCount)
}

func TestHistogram(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRatings{}, &fakeOrders{})
	product := gocql.TimeUUID()

	for _, rating := range []int{5, 5, 4, 1} {
		_, err := svc.Create(context.Background(), newReview(product, rating))
		require.NoError(t, err)
	}

	h, err := svc.Histogram(context.Background(), product)
	require.NoError(t, err)

	assert.Equal(t, 4, h.Total)
	assert.Equal(t, 2, h.Counts[5])
	assert.Equal(t, 1, h.Counts[4])
	assert.Equal(t, 0, h.Counts[3])
	assert.Equal(t, 50.0, h.Percentages[5])
	assert.Equal(t, 25.0, h.Percentages[4])
}

func TestDeleteByUser(t *testing.T) {
	store := newFakeStore()
	ratings := &fakeRatings{}
	svc := newTestService(store, ratings, &fakeOrders{})

	user := gocql.TimeUUID()
	productA := gocql.TimeUUID()
	productB := gocql.TimeUUID()

	for _, product := range []gocql.UUID{productA, productB} {
		_, err := svc.Create(context.Background(), models.Review{
			ProductID: product, UserID: user, UserName: "Awa", Rating: 5,
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteByUser(context.Background(), user))

	remaining, err := store.ByUser(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Equal(t, 0, ratings.count)
}
