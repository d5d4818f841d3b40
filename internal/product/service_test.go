package product

import (
	"context"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soko_back_end/internal/models"
)

// fakeStore est un Store en mémoire reproduisant les réservations de SKU
// et de slug, ainsi que la table de requête par catégorie.
type fakeStore struct {
	products     map[gocql.UUID]models.Product
	categoryRows map[gocql.UUID]map[gocql.UUID]bool
	skus         map[string]gocql.UUID
	slugs        map[string]gocql.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:     make(map[gocql.UUID]models.Product),
		categoryRows: make(map[gocql.UUID]map[gocql.UUID]bool),
		skus:         make(map[string]gocql.UUID),
		slugs:        make(map[string]gocql.UUID),
	}
}

func (f *fakeStore) addCategoryRow(categoryID, productID gocql.UUID) {
	if f.categoryRows[categoryID] == nil {
		f.categoryRows[categoryID] = make(map[gocql.UUID]bool)
	}
	f.categoryRows[categoryID][productID] = true
}

func (f *fakeStore) Insert(_ context.Context, p models.Product) error {
	f.products[p.ID] = p
	f.addCategoryRow(p.CategoryID, p.ID)
	return nil
}

func (f *fakeStore) Update(_ context.Context, p models.Product) error {
	if old, ok := f.products[p.ID]; ok && old.CategoryID != p.CategoryID {
		delete(f.categoryRows[old.CategoryID], p.ID)
	}
	f.products[p.ID] = p
	f.addCategoryRow(p.CategoryID, p.ID)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, p models.Product) error {
	delete(f.products, p.ID)
	delete(f.categoryRows[p.CategoryID], p.ID)
	return nil
}

func (f *fakeStore) ByID(_ context.Context, id gocql.UUID) (models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) BySlug(_ context.Context, slug string) (models.Product, error) {
	id, ok := f.slugs[slug]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return f.products[id], nil
}

func (f *fakeStore) BySKU(_ context.Context, sku string) (models.Product, error) {
	id, ok := f.skus[sku]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return f.products[id], nil
}

func (f *fakeStore) All(_ context.Context) ([]models.Product, error) {
	out := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) ByCategory(_ context.Context, categoryID gocql.UUID) ([]models.Product, error) {
	var out []models.Product
	for id := range f.categoryRows[categoryID] {
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeStore) SetStock(_ context.Context, id gocql.UUID, stock int) error {
	p := f.products[id]
	p.Stock = stock
	f.products[id] = p
	return nil
}

func (f *fakeStore) SetRating(_ context.Context, id gocql.UUID, average float64, count int) error {
	p := f.products[id]
	p.Rating = models.Rating{Average: average, Count: count}
	f.products[id] = p
	return nil
}

func (f *fakeStore) ClaimSKU(_ context.Context, sku string, id gocql.UUID) (bool, error) {
	if _, taken := f.skus[sku]; taken {
		return false, nil
	}
	f.skus[sku] = id
	return true, nil
}

func (f *fakeStore) ReleaseSKU(_ context.Context, sku string) error {
	delete(f.skus, sku)
	return nil
}

func (f *fakeStore) ClaimSlug(_ context.Context, slug string, id gocql.UUID) (bool, error) {
	if _, taken := f.slugs[slug]; taken {
		return false, nil
	}
	f.slugs[slug] = id
	return true, nil
}

func (f *fakeStore) ReleaseSlug(_ context.Context, slug string) error {
	delete(f.slugs, slug)
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, nil, nil, nil, nil, zap.NewNop().Sugar())
}

func TestCreateProduct(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), models.Product{
		Name:  "Men's Running Shoes!!",
		SKU:   "shoe-001",
		Price: 2500,
		Stock: 10,
	})
	require.NoError(t, err)

	// SKU normalisé en majuscules, slug dérivé du nom
	assert.Equal(t, "SHOE-001", p.SKU)
	assert.Equal(t, "men-s-running-shoes", p.Slug)

	found, err := svc.BySKU(context.Background(), "shoe-001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), models.Product{Name: "Premier", SKU: "DUP-1", Price: 10})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), models.Product{Name: "Second", SKU: "dup-1", Price: 10})
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestCreateProductDuplicateSlugReleasesSKU(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), models.Product{Name: "Même Nom", SKU: "SKU-A", Price: 10})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), models.Product{Name: "Même Nom", SKU: "SKU-B", Price: 10})
	require.ErrorIs(t, err, ErrDuplicateSlug)

	// Le SKU réservé pour la tentative échouée doit être libéré
	_, taken := store.skus["SKU-B"]
	assert.False(t, taken)
}

func TestReduceStock(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), models.Product{Name: "Stock Test", SKU: "ST-1", Price: 10, Stock: 5})
	require.NoError(t, err)

	t.Run("quantité au-delà du stock: échec, stock inchangé", func(t *testing.T) {
		remaining, err := svc.ReduceStock(context.Background(), p.ID, 6)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 5, remaining)

		stored, _ := store.ByID(context.Background(), p.ID)
		assert.Equal(t, 5, stored.Stock)
	})

	t.Run("tout le stock: descend à zéro", func(t *testing.T) {
		remaining, err := svc.ReduceStock(context.Background(), p.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})

	t.Run("stock à zéro: toute réduction échoue", func(t *testing.T) {
		_, err := svc.ReduceStock(context.Background(), p.ID, 1)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestAddStock(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), models.Product{Name: "Réappro", SKU: "RA-1", Price: 10, Stock: 2})
	require.NoError(t, err)

	newStock, err := svc.AddStock(context.Background(), p.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, newStock)
}

func TestUpdatePreservesSKUAndSlug(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), models.Product{Name: "Original", SKU: "UP-1", Price: 10})
	require.NoError(t, err)

	p.Name = "Nouveau Nom"
	p.SKU = "AUTRE"
	p.Slug = "autre-slug"
	updated, err := svc.Update(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "UP-1", updated.SKU)
	assert.Equal(t, "original", updated.Slug)
	assert.Equal(t, "Nouveau Nom", updated.Name)
}

func TestActiveAndFeatured(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	mk := func(name, sku string, active, featured bool) {
		_, err := svc.Create(context.Background(), models.Product{
			Name: name, SKU: sku, Price: 10, IsActive: active, IsFeatured: featured,
		})
		require.NoError(t, err)
	}
	mk("Actif", "AF-1", true, false)
	mk("Vedette", "AF-2", true, true)
	mk("Inactif", "AF-3", false, true)

	active, err := svc.Active(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 2)

	featured, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Vedette", featured[0].Name)
}

func TestSearchFallsBackToScan(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store) // pas d'indexeur : fallback direct

	_, err := svc.Create(context.Background(), models.Product{
		Name: "Chaussures de course", SKU: "SC-1", Price: 10,
		Tags: []string{"running", "sport"},
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), models.Product{Name: "Cafetière", SKU: "SC-2", Price: 10})
	require.NoError(t, err)

	t.Run("sur le nom", func(t *testing.T) {
		out, err := svc.Search(context.Background(), "chaussures")
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("sur un tag", func(t *testing.T) {
		out, err := svc.Search(context.Background(), "RUNNING")
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("aucun résultat", func(t *testing.T) {
		out, err := svc.Search(context.Background(), "tracteur")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

// fakeCounters est un Counters en mémoire.
type fakeCounters struct {
	views map[gocql.UUID]int64
	sales map[gocql.UUID]int64
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{
		views: make(map[gocql.UUID]int64),
		sales: make(map[gocql.UUID]int64),
	}
}

func (f *fakeCounters) IncrViews(_ context.Context, id gocql.UUID) (int64, error) {
	f.views[id]++
	return f.views[id], nil
}

func (f *fakeCounters) IncrSales(_ context.Context, id gocql.UUID, qty int) (int64, error) {
	f.sales[id] += int64(qty)
	return f.sales[id], nil
}

func (f *fakeCounters) Views(_ context.Context, id gocql.UUID) (int64, error) {
	return f.views[id], nil
}

func (f *fakeCounters) Sales(_ context.Context, id gocql.UUID) (int64, error) {
	return f.sales[id], nil
}

func TestViewsAndSalesCounters(t *testing.T) {
	store := newFakeStore()
	counters := newFakeCounters()
	svc := NewService(store, nil, counters, nil, nil, zap.NewNop().Sugar())

	p, err := svc.Create(context.Background(), models.Product{Name: "Montre", SKU: "W-1", Price: 500})
	require.NoError(t, err)

	svc.RecordView(context.Background(), p.ID, gocql.TimeUUID())
	svc.RecordSale(context.Background(), p.ID, 3)
	svc.RecordSale(context.Background(), p.ID, 2)

	views, err := svc.Views(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)

	sales, err := svc.Sales(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sales)
}

func TestDeleteProduct(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), models.Product{Name: "Sac à dos", SKU: "BAG-1", Price: 1500})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), p.ID))

	_, err = svc.ByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Le SKU et le slug sont libérés
	_, err = svc.Create(context.Background(), models.Product{Name: "Sac à dos", SKU: "BAG-1", Price: 1500})
	require.NoError(t, err)

	t.Run("produit inconnu", func(t *testing.T) {
		err := svc.Delete(context.Background(), gocql.TimeUUID())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateMovesCategoryRow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	catA := gocql.TimeUUID()
	catB := gocql.TimeUUID()

	p, err := svc.Create(context.Background(), models.Product{
		Name: "Lampe", SKU: "L-1", Price: 800, CategoryID: catA,
	})
	require.NoError(t, err)

	p.CategoryID = catB
	_, err = svc.Update(context.Background(), p)
	require.NoError(t, err)

	old, err := svc.ByCategory(context.Background(), catA)
	require.NoError(t, err)
	assert.Empty(t, old, "l'ancienne ligne de catégorie doit être purgée")

	moved, err := svc.ByCategory(context.Background(), catB)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, p.ID, moved[0].ID)
}
