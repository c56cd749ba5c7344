package inmemory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
)

func seedStore() *Store {
	return NewStore([]entity.Product{
		{ID: 1, Name: "Cat Sweater", Price: decimal.NewFromInt(260), Category: "Clothes and accessories", Stock: 3},
		{ID: 2, Name: "Pet Camera", Price: decimal.NewFromInt(200), Category: "Electronics", Stock: 10},
	})
}

func TestProducts_DecrementStock(t *testing.T) {
	ctx := context.Background()
	s := seedStore()

	require.NoError(t, s.Products().DecrementStock(ctx, 1, 2))
	err := s.Products().DecrementStock(ctx, 1, 2)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	require.NoError(t, s.Products().DecrementStock(ctx, 1, 1))

	p, err := s.Products().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)

	assert.ErrorIs(t, s.Products().DecrementStock(ctx, 404, 1), repository.ErrNotFound)
}

func TestProducts_ConcurrentDecrementNeverOversells(t *testing.T) {
	ctx := context.Background()
	s := seedStore()

	var ok int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Products().DecrementStock(ctx, 2, 1); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	p, err := s.Products().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(10), ok)
	assert.Equal(t, 0, p.Stock)
}

func TestProducts_ListByIDs(t *testing.T) {
	s := seedStore()
	got, err := s.Products().ListByIDs(context.Background(), []int{2, 9, 1, 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestProducts_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	p, err := s.Products().GetByID(ctx, 1)
	require.NoError(t, err)
	p.Stock = 1000

	again, err := s.Products().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Stock)
}

func TestCarts_OneOpenCartPerUser(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	now := time.Now()

	_, err := s.Carts().FindOpenByUser(ctx, 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c1, err := s.Carts().GetOrCreateOpen(ctx, 7, now)
	require.NoError(t, err)
	c2, err := s.Carts().GetOrCreateOpen(ctx, 7, now)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)

	require.NoError(t, s.Carts().UpdateState(ctx, c1.ID, entity.CartCancelled, now))
	_, err = s.Carts().FindOpenByUser(ctx, 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c3, err := s.Carts().GetOrCreateOpen(ctx, 7, now)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c3.ID)
	assert.Empty(t, c3.Lines)
}

func TestCarts_Lines(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	now := time.Now()
	c, err := s.Carts().GetOrCreateOpen(ctx, 1, now)
	require.NoError(t, err)

	require.NoError(t, s.Carts().SaveLine(ctx, c.ID, entity.CartLine{ProductID: 2, Quantity: 1, AddedAt: now}))
	require.NoError(t, s.Carts().SaveLine(ctx, c.ID, entity.CartLine{ProductID: 1, Quantity: 2, AddedAt: now}))
	require.NoError(t, s.Carts().SaveLine(ctx, c.ID, entity.CartLine{ProductID: 2, Quantity: 4, AddedAt: now}))

	got, err := s.Carts().FindOpenByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 2, got.Lines[0].ProductID)
	assert.Equal(t, 4, got.Lines[0].Quantity)

	assert.ErrorIs(t, s.Carts().DeleteLine(ctx, c.ID, 99), repository.ErrNotFound)
	require.NoError(t, s.Carts().DeleteLine(ctx, c.ID, 2))
	require.NoError(t, s.Carts().ClearLines(ctx, c.ID))

	got, err = s.Carts().FindOpenByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Lines)

	assert.ErrorIs(t, s.Carts().SaveLine(ctx, uuid.New(), entity.CartLine{ProductID: 1, Quantity: 1}), repository.ErrNotFound)
}

func TestOrders_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := seedStore()

	first := &entity.Order{ID: uuid.New(), UserID: 5, CreatedAt: time.Now()}
	other := &entity.Order{ID: uuid.New(), UserID: 6, CreatedAt: time.Now()}
	second := &entity.Order{ID: uuid.New(), UserID: 5, CreatedAt: time.Now()}
	for _, o := range []*entity.Order{first, other, second} {
		require.NoError(t, s.Orders().Create(ctx, o))
	}
	assert.Error(t, s.Orders().Create(ctx, first))

	got, err := s.Orders().ListByUser(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	_, err = s.Orders().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTx_RollsBackEverythingOnError(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	now := time.Now()
	cart, err := s.Carts().GetOrCreateOpen(ctx, 1, now)
	require.NoError(t, err)
	require.NoError(t, s.Carts().SaveLine(ctx, cart.ID, entity.CartLine{ProductID: 1, Quantity: 2, AddedAt: now}))

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Products().DecrementStock(ctx, 1, 2))
		require.NoError(t, tx.Orders().Create(ctx, &entity.Order{ID: uuid.New(), UserID: 1}))
		require.NoError(t, tx.Carts().ClearLines(ctx, cart.ID))
		require.NoError(t, tx.Carts().UpdateState(ctx, cart.ID, entity.CartFinalized, now))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := s.Products().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	orders, err := s.Orders().ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orders)

	open, err := s.Carts().FindOpenByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, open.QuantityOf(1))
}

func TestWithinTx_RollsBackCartCreatedInside(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	now := time.Now()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		c, err := tx.Carts().GetOrCreateOpen(ctx, 7, now)
		require.NoError(t, err)
		require.NoError(t, tx.Carts().SaveLine(ctx, c.ID, entity.CartLine{ProductID: 2, Quantity: 1, AddedAt: now}))
		require.NoError(t, tx.Orders().Create(ctx, &entity.Order{ID: uuid.New(), UserID: 7}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Carts().FindOpenByUser(ctx, 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, s.data.carts)
	assert.Empty(t, s.data.orderSeq)
	assert.Nil(t, s.data.undo)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := seedStore()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			require.NoError(t, tx.Products().DecrementStock(ctx, 2, 4))
			panic("mid-checkout")
		})
	})

	p, err := s.Products().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)

	// the store stays usable and later writes are not journaled
	require.NoError(t, s.Products().DecrementStock(ctx, 2, 1))
	assert.Nil(t, s.data.undo)
}

func TestWithinTx_JournalFollowsRowsTouched(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	for i := 0; i < 500; i++ {
		require.NoError(t, s.Orders().Create(ctx, &entity.Order{ID: uuid.New(), UserID: i%5 + 1}))
	}

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Products().DecrementStock(ctx, 1, 1))
		require.NoError(t, tx.Orders().Create(ctx, &entity.Order{ID: uuid.New(), UserID: 1}))
		// fn runs under the store lock
		assert.Len(t, s.data.undo, 2)
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, s.data.undo)
	assert.Len(t, s.data.orderSeq, 501)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := seedStore()

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		return tx.Products().DecrementStock(ctx, 2, 4)
	})
	require.NoError(t, err)

	p, err := s.Products().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock)
}

func TestWithinTx_HonoursCancelledContext(t *testing.T) {
	s := seedStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPutProduct_ReplacesCatalogEntry(t *testing.T) {
	ctx := context.Background()
	s := seedStore()
	s.PutProduct(entity.Product{ID: 1, Name: "Cat Sweater", Price: decimal.NewFromInt(300), Category: "Clothes and accessories", Stock: 8})
	s.PutProduct(entity.Product{ID: 3, Name: "Scratcher", Price: decimal.NewFromInt(90), Stock: 1})

	p, err := s.Products().GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(300)))

	all, err := s.Products().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
