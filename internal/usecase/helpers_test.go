package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/cache"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/database/inmemory"
	"github.com/wichananm65/pet-shop-checkout/internal/pricing"
)

const (
	sweaterID = 1 // clothes, 100
	cameraID  = 2 // electronics, 200
	feederID  = 3 // electronics, 250
)

func catalog() []entity.Product {
	return []entity.Product{
		{ID: sweaterID, Name: "Cat Sweater", Price: decimal.NewFromInt(100), Category: "Clothes and accessories", Stock: 10},
		{ID: cameraID, Name: "Pet Camera", Price: decimal.NewFromInt(200), Category: "Electronics", Stock: 10},
		{ID: feederID, Name: "Smart Feeder", Price: decimal.NewFromInt(250), Category: "electronics", Stock: 3},
	}
}

type fixture struct {
	store    *inmemory.Store
	carts    *CartService
	checkout *CheckoutService
	orders   *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, inmemory.NewStore(catalog()), cache.Noop{})
}

func newFixtureWith(t *testing.T, store *inmemory.Store, c cache.CartCache) *fixture {
	t.Helper()
	return newFixtureOver(t, store, store, c)
}

// newFixtureOver runs the services on wrapped, a decorated view of store.
func newFixtureOver(t *testing.T, wrapped repository.Store, store *inmemory.Store, c cache.CartCache) *fixture {
	t.Helper()
	engine := pricing.NewEngine(pricing.DefaultConfig())
	carts := NewCartService(wrapped, engine, c, zerolog.Nop())
	return &fixture{
		store:    store,
		carts:    carts,
		checkout: NewCheckoutService(wrapped, engine, carts, zerolog.Nop()),
		orders:   NewOrderService(store.Orders()),
	}
}

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCache(client, time.Minute), mr
}

func (f *fixture) stock(t *testing.T, productID int) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func requireKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	var e *apperr.Error
	require.True(t, errors.As(err, &e), "expected *apperr.Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, e.Message)
	return e
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// failingDecrementStore lets every check pass and then refuses the stock
// decrement for one product, the way a concurrent checkout that committed
// first would.
type failingDecrementStore struct {
	*inmemory.Store
	productID int
}

func (s failingDecrementStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		return fn(ctx, failingTx{Repositories: tx, productID: s.productID})
	})
}

type failingTx struct {
	repository.Repositories
	productID int
}

func (t failingTx) Products() repository.ProductRepository {
	return failingProducts{ProductRepository: t.Repositories.Products(), productID: t.productID}
}

type failingProducts struct {
	repository.ProductRepository
	productID int
}

func (p failingProducts) DecrementStock(ctx context.Context, id int, amount int) error {
	if id == p.productID {
		return repository.ErrInsufficientStock
	}
	return p.ProductRepository.DecrementStock(ctx, id, amount)
}

// pausingStore stops the next non-transactional open-cart read right after
// it has read the cart, until release is closed.
type pausingStore struct {
	*inmemory.Store
	armed   atomic.Bool
	paused  chan struct{}
	release chan struct{}
}

func newPausingStore(store *inmemory.Store) *pausingStore {
	return &pausingStore{Store: store, paused: make(chan struct{}), release: make(chan struct{})}
}

func (s *pausingStore) Carts() repository.CartRepository {
	return pausingCarts{CartRepository: s.Store.Carts(), s: s}
}

type pausingCarts struct {
	repository.CartRepository
	s *pausingStore
}

func (c pausingCarts) FindOpenByUser(ctx context.Context, userID int) (*entity.Cart, error) {
	cart, err := c.CartRepository.FindOpenByUser(ctx, userID)
	if c.s.armed.CompareAndSwap(true, false) {
		close(c.s.paused)
		<-c.s.release
	}
	return cart, err
}

// recordingStore notes the product ids passed to DecrementStock, in call
// order.
type recordingStore struct {
	*inmemory.Store
	mu         sync.Mutex
	decrements []int
}

func (s *recordingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		return fn(ctx, recordingTx{Repositories: tx, s: s})
	})
}

type recordingTx struct {
	repository.Repositories
	s *recordingStore
}

func (t recordingTx) Products() repository.ProductRepository {
	return recordingProducts{ProductRepository: t.Repositories.Products(), s: t.s}
}

type recordingProducts struct {
	repository.ProductRepository
	s *recordingStore
}

func (p recordingProducts) DecrementStock(ctx context.Context, id int, amount int) error {
	p.s.mu.Lock()
	p.s.decrements = append(p.s.decrements, id)
	p.s.mu.Unlock()
	return p.ProductRepository.DecrementStock(ctx, id, amount)
}
