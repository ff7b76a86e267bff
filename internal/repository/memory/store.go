// Package memory is an in-process implementation of the repository contracts.
// Rows live in id-keyed arenas; child collections are reached through index
// maps (order id -> item ids, cart id -> item ids, ...) instead of pointers.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
)

type cartRow struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

type cartItemRow struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
}

type wishlistItemRow struct {
	ID         int64
	WishlistID int64
	ProductID  int64
}

type state struct {
	seq map[string]int64

	products       map[int64]domain.Product
	paymentMethods map[int64]domain.PaymentMethod
	addresses      map[int64]domain.Address

	orders          map[int64]domain.OrderAggregate // Items and Timeline are kept empty here
	orderItems      map[int64]domain.OrderItem
	itemsByOrder    map[int64][]int64
	timeline        map[int64]domain.TimelineEntry
	timelineByOrder map[int64][]int64

	carts           map[int64]cartRow
	cartByUser      map[int64]int64
	cartItems       map[int64]cartItemRow
	cartItemsByCart map[int64][]int64

	wishlists               map[int64]domain.Wishlist
	wishlistByUser          map[int64]int64
	wishlistItems           map[int64]wishlistItemRow
	wishlistItemsByWishlist map[int64][]int64
}

func newState() *state {
	return &state{
		seq:                     map[string]int64{},
		products:                map[int64]domain.Product{},
		paymentMethods:          map[int64]domain.PaymentMethod{},
		addresses:               map[int64]domain.Address{},
		orders:                  map[int64]domain.OrderAggregate{},
		orderItems:              map[int64]domain.OrderItem{},
		itemsByOrder:            map[int64][]int64{},
		timeline:                map[int64]domain.TimelineEntry{},
		timelineByOrder:         map[int64][]int64{},
		carts:                   map[int64]cartRow{},
		cartByUser:              map[int64]int64{},
		cartItems:               map[int64]cartItemRow{},
		cartItemsByCart:         map[int64][]int64{},
		wishlists:               map[int64]domain.Wishlist{},
		wishlistByUser:          map[int64]int64{},
		wishlistItems:           map[int64]wishlistItemRow{},
		wishlistItemsByWishlist: map[int64][]int64{},
	}
}

func (s *state) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// assignID keeps the sequence ahead of explicitly chosen ids.
func (s *state) assignID(table string, id int64) int64 {
	if id == 0 {
		return s.nextID(table)
	}
	if id > s.seq[table] {
		s.seq[table] = id
	}
	return id
}

func cloneIndex(index map[int64][]int64) map[int64][]int64 {
	out := make(map[int64][]int64, len(index))
	for k, v := range index {
		out[k] = slices.Clone(v)
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		seq:                     maps.Clone(s.seq),
		products:                maps.Clone(s.products),
		paymentMethods:          maps.Clone(s.paymentMethods),
		addresses:               maps.Clone(s.addresses),
		orders:                  maps.Clone(s.orders),
		orderItems:              maps.Clone(s.orderItems),
		itemsByOrder:            cloneIndex(s.itemsByOrder),
		timeline:                maps.Clone(s.timeline),
		timelineByOrder:         cloneIndex(s.timelineByOrder),
		carts:                   maps.Clone(s.carts),
		cartByUser:              maps.Clone(s.cartByUser),
		cartItems:               maps.Clone(s.cartItems),
		cartItemsByCart:         cloneIndex(s.cartItemsByCart),
		wishlists:               maps.Clone(s.wishlists),
		wishlistByUser:          maps.Clone(s.wishlistByUser),
		wishlistItems:           maps.Clone(s.wishlistItems),
		wishlistItemsByWishlist: cloneIndex(s.wishlistItemsByWishlist),
	}
}

// Store serializes transactions with a single mutex and restores a snapshot
// when a transaction fails.
type Store struct {
	mu    sync.Mutex
	state *state
	clock func() time.Time
}

func NewStore() *Store {
	return &Store{state: newState(), clock: time.Now}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(repos{store: s, inTx: true})
}

func (s *Store) Orders() repository.OrderRepository {
	return &orderRepository{repos{store: s}}
}

func (s *Store) Timeline() repository.TimelineRepository {
	return &timelineRepository{repos{store: s}}
}

func (s *Store) Carts() repository.CartRepository {
	return &cartRepository{repos{store: s}}
}

func (s *Store) Wishlists() repository.WishlistRepository {
	return &wishlistRepository{repos{store: s}}
}

func (s *Store) Catalog() repository.CatalogRepository {
	return &catalogRepository{repos{store: s}}
}

// repos binds repositories either to a running transaction (lock already
// held) or to the store for single locked reads.
type repos struct {
	store *Store
	inTx  bool
}

func (r repos) Orders() repository.OrderRepository       { return &orderRepository{r} }
func (r repos) Timeline() repository.TimelineRepository  { return &timelineRepository{r} }
func (r repos) Carts() repository.CartRepository         { return &cartRepository{r} }
func (r repos) Wishlists() repository.WishlistRepository { return &wishlistRepository{r} }
func (r repos) Catalog() repository.CatalogRepository    { return &catalogRepository{r} }

// lock returns the state to operate on and the matching unlock func.
func (r repos) lock() (*state, func()) {
	if r.inTx {
		return r.store.state, func() {}
	}
	r.store.mu.Lock()
	return r.store.state, r.store.mu.Unlock
}

// Catalog seeding. The catalog is read-only for the service, so these live
// outside the repository contracts.

func (s *Store) AddProduct(product domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	product.ID = s.state.assignID("products", product.ID)
	s.state.products[product.ID] = product
	return product
}

func (s *Store) AddPaymentMethod(method domain.PaymentMethod) domain.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	method.ID = s.state.assignID("payment_methods", method.ID)
	s.state.paymentMethods[method.ID] = method
	return method
}

func (s *Store) AddAddress(address domain.Address) domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	address.ID = s.state.assignID("addresses", address.ID)
	s.state.addresses[address.ID] = address
	return address
}
