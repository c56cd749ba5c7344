package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/wichananm65/pet-shop-checkout/internal/apperr"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/entity"
	"github.com/wichananm65/pet-shop-checkout/internal/domain/repository"
	"github.com/wichananm65/pet-shop-checkout/internal/infrastructure/cache"
	"github.com/wichananm65/pet-shop-checkout/internal/pricing"
)

// CartViewLine is a cart line priced at the current catalog price.
type CartViewLine struct {
	ProductID   int
	ProductName string
	Category    string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// CartView is what GET /cart returns. CartID is uuid.Nil when the user has
// no OPEN cart.
type CartView struct {
	CartID uuid.UUID
	UserID int
	State  entity.CartState
	Lines  []CartViewLine
	pricing.Totals
}

// cartEntry is what the cache keeps for a user. A nil Cart records that the
// user has no OPEN cart.
type cartEntry struct {
	Cart *entity.Cart `json:"cart"`
}

// CartService implements CartUsecase. Stock is checked when a line is added
// or changed but not reserved; checkout re-checks and decrements.
type CartService struct {
	store   repository.Store
	pricing *pricing.Engine
	cache   cache.CartCache
	group   singleflight.Group
	log     zerolog.Logger
	now     func() time.Time

	// local generations keep a load that started before a mutation from
	// being shared with callers that arrive after it
	genMu sync.Mutex
	gens  map[int]uint64
}

func NewCartService(store repository.Store, engine *pricing.Engine, cartCache cache.CartCache, log zerolog.Logger) *CartService {
	if cartCache == nil {
		cartCache = cache.Noop{}
	}
	return &CartService{
		store:   store,
		pricing: engine,
		cache:   cartCache,
		log:     log.With().Str("component", "cart").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		gens:    make(map[int]uint64),
	}
}

func (s *CartService) GetOrCreateOpenCart(ctx context.Context, userID int) (*entity.Cart, error) {
	c, err := s.store.Carts().GetOrCreateOpen(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("get or create open cart: %w", err)
	}
	return c, nil
}

func (s *CartService) AddLine(ctx context.Context, userID, productID, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, apperr.InvalidInput("quantity must be positive")
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		now := s.now()
		p, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product %d not found", productID)
		}
		c, err := tx.Carts().GetOrCreateOpen(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("get or create open cart: %w", err)
		}

		have := c.QuantityOf(productID)
		if quantity > p.Stock-have {
			requested := math.MaxInt
			if quantity <= math.MaxInt-have {
				requested = have + quantity
			}
			return apperr.InsufficientStock(p.ID, p.Name, requested, p.Stock)
		}
		return tx.Carts().SaveLine(ctx, c.ID, c.SetQuantity(productID, have+quantity, now))
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int("user_id", userID).Int("product_id", productID).Int("quantity", quantity).Msg("cart line added")
	return s.afterMutation(ctx, userID)
}

func (s *CartService) RemoveLine(ctx context.Context, userID, productID int) (*CartView, error) {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		c, err := tx.Carts().FindOpenByUser(ctx, userID)
		if err != nil {
			return noActiveCartOr(err)
		}
		if err := tx.Carts().DeleteLine(ctx, c.ID, productID); err != nil {
			return notFoundOr(err, "product %d is not in the cart", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int("user_id", userID).Int("product_id", productID).Msg("cart line removed")
	return s.afterMutation(ctx, userID)
}

// UpdateQuantity sets an absolute quantity on an existing line. Zero
// removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, apperr.InvalidInput("quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveLine(ctx, userID, productID)
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		c, err := tx.Carts().FindOpenByUser(ctx, userID)
		if err != nil {
			return noActiveCartOr(err)
		}
		if _, ok := c.Line(productID); !ok {
			return apperr.NotFound("product %d is not in the cart", productID)
		}
		p, err := tx.Products().GetByID(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product %d not found", productID)
		}
		if quantity > p.Stock {
			return apperr.InsufficientStock(p.ID, p.Name, quantity, p.Stock)
		}
		return tx.Carts().SaveLine(ctx, c.ID, c.SetQuantity(productID, quantity, s.now()))
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Int("user_id", userID).Int("product_id", productID).Int("quantity", quantity).Msg("cart line updated")
	return s.afterMutation(ctx, userID)
}

// Cancel empties the OPEN cart and moves it to CANCELLED. Nothing was
// reserved, so no stock is restored.
func (s *CartService) Cancel(ctx context.Context, userID int) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		c, err := tx.Carts().FindOpenByUser(ctx, userID)
		if err != nil {
			return noActiveCartOr(err)
		}
		if !c.CanTransitionTo(entity.CartCancelled) {
			return apperr.InvalidState("cart is %s", c.State)
		}
		if err := tx.Carts().ClearLines(ctx, c.ID); err != nil {
			return fmt.Errorf("clear cart lines: %w", err)
		}
		return tx.Carts().UpdateState(ctx, c.ID, entity.CartCancelled, s.now())
	})
	if err != nil {
		return err
	}

	s.Invalidate(ctx, userID)
	s.log.Info().Int("user_id", userID).Msg("cart cancelled")
	return nil
}

// View prices the OPEN cart at current catalog prices. Only the cart is
// cached; prices and names are read from the catalog on every call.
func (s *CartService) View(ctx context.Context, userID int) (*CartView, error) {
	c, err := s.openCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, userID, c)
}

// Invalidate drops the cached cart of userID. It must run after the
// mutation committed.
func (s *CartService) Invalidate(ctx context.Context, userID int) {
	s.genMu.Lock()
	s.gens[userID]++
	s.genMu.Unlock()

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("cart cache invalidation failed")
	}
}

func (s *CartService) localGen(userID int) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[userID]
}

// openCart returns the user's OPEN cart, nil when there is none. Concurrent
// misses for one user and one generation share a single store read.
func (s *CartService) openCart(ctx context.Context, userID int) (*entity.Cart, error) {
	if data, err := s.cache.Get(ctx, userID); err == nil {
		var e cartEntry
		if err := json.Unmarshal(data, &e); err == nil {
			return e.Cart, nil
		}
		s.log.Warn().Int("user_id", userID).Msg("discarding undecodable cached cart")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("cart cache read failed")
	}

	// read before the store so a mutation committing mid-load bumps it
	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		s.log.Warn().Err(genErr).Int("user_id", userID).Msg("cart cache generation read failed")
	}
	key := fmt.Sprintf("%d:%d:%d", userID, s.localGen(userID), gen)

	res, err, _ := s.group.Do(key, func() (any, error) {
		c, err := s.findOpen(ctx, userID)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			s.remember(ctx, userID, gen, c)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*entity.Cart), nil
}

func (s *CartService) findOpen(ctx context.Context, userID int) (*entity.Cart, error) {
	c, err := s.store.Carts().FindOpenByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load open cart: %w", err)
	}
	return c, nil
}

func (s *CartService) remember(ctx context.Context, userID int, gen int64, c *entity.Cart) {
	data, err := json.Marshal(cartEntry{Cart: c})
	if err != nil {
		s.log.Warn().Err(err).Msg("encode cart")
		return
	}
	err = s.cache.Set(ctx, userID, gen, data)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrStale):
		s.log.Debug().Int("user_id", userID).Msg("cart changed while loading, not cached")
	default:
		s.log.Warn().Err(err).Int("user_id", userID).Msg("cart cache write failed")
	}
}

func (s *CartService) afterMutation(ctx context.Context, userID int) (*CartView, error) {
	s.Invalidate(ctx, userID)
	c, err := s.findOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, userID, c)
}

// price values c against the live catalog. A nil cart is an empty view.
func (s *CartService) price(ctx context.Context, userID int, c *entity.Cart) (*CartView, error) {
	if c == nil {
		return &CartView{
			UserID: userID,
			State:  entity.CartOpen,
			Lines:  []CartViewLine{},
			Totals: s.pricing.Compute(nil),
		}, nil
	}

	ids := make([]int, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.store.Products().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[int]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &CartView{
		CartID: c.ID,
		UserID: c.UserID,
		State:  c.State,
		Lines:  make([]CartViewLine, 0, len(c.Lines)),
	}
	priced := make([]pricing.Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			s.log.Warn().Int("user_id", userID).Int("product_id", l.ProductID).Msg("cart line references a missing product")
			continue
		}
		line := pricing.Line{UnitPrice: p.Price, Quantity: l.Quantity, Category: p.Category}
		priced = append(priced, line)
		view.Lines = append(view.Lines, CartViewLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Category:    p.Category,
			UnitPrice:   p.Price,
			Quantity:    l.Quantity,
			Subtotal:    line.Subtotal(),
		})
	}
	view.Totals = s.pricing.Compute(priced)
	return view, nil
}
