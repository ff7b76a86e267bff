package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/repository"
)

type orderRepository struct{ repos }

func (r *orderRepository) Create(ctx context.Context, order *domain.OrderAggregate) error {
	st, unlock := r.lock()
	defer unlock()

	order.ID = st.nextID("orders")
	row := *order
	row.Items, row.Timeline = nil, nil
	st.orders[order.ID] = row

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = st.nextID("order_items")
		item.OrderID = order.ID
		st.orderItems[item.ID] = *item
		st.itemsByOrder[order.ID] = append(st.itemsByOrder[order.ID], item.ID)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.OrderAggregate, error) {
	st, unlock := r.lock()
	defer unlock()

	row, ok := st.orders[id]
	if !ok {
		return nil, domain.NotFound("order not found: %d", id)
	}
	return st.assembleOrder(row), nil
}

// FindByIDForUpdate needs no extra locking: transactions already hold the store mutex.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.OrderAggregate, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.OrderAggregate) error {
	st, unlock := r.lock()
	defer unlock()

	row, ok := st.orders[order.ID]
	if !ok {
		return domain.NotFound("order not found: %d", order.ID)
	}
	row.Status = order.Status
	row.UpdatedAt = order.UpdatedAt
	st.orders[order.ID] = row
	return nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter, page domain.PageRequest) ([]*domain.OrderAggregate, int64, error) {
	less, err := orderLess(page.SortBy)
	if err != nil {
		return nil, 0, err
	}

	st, unlock := r.lock()
	defer unlock()

	var rows []domain.OrderAggregate
	for _, row := range st.orders {
		if filter.UserID != 0 && row.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if page.SortDir == domain.SortAsc {
			return less(a, b)
		}
		return less(b, a)
	})

	total := int64(len(rows))
	start := min(page.Offset(), len(rows))
	end := min(start+page.PageSize, len(rows))

	orders := make([]*domain.OrderAggregate, 0, end-start)
	for _, row := range rows[start:end] {
		orders = append(orders, st.assembleOrder(row))
	}
	return orders, total, nil
}

// orderLess orders by the requested field with id as tie breaker.
func orderLess(field string) (func(a, b domain.OrderAggregate) bool, error) {
	var cmp func(a, b domain.OrderAggregate) int
	switch field {
	case "id":
		cmp = func(a, b domain.OrderAggregate) int { return 0 }
	case "orderDate":
		cmp = func(a, b domain.OrderAggregate) int { return a.OrderDate.Compare(b.OrderDate) }
	case "total":
		cmp = func(a, b domain.OrderAggregate) int { return a.Total.Cmp(b.Total) }
	case "status":
		cmp = func(a, b domain.OrderAggregate) int { return strings.Compare(string(a.Status), string(b.Status)) }
	default:
		return nil, domain.BadRequest("invalid sort field: %s", field)
	}

	return func(a, b domain.OrderAggregate) bool {
		if c := cmp(a, b); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	}, nil
}

func (st *state) assembleOrder(row domain.OrderAggregate) *domain.OrderAggregate {
	order := row
	order.Items = make([]domain.OrderItem, 0, len(st.itemsByOrder[row.ID]))
	for _, id := range st.itemsByOrder[row.ID] {
		order.Items = append(order.Items, st.orderItems[id])
	}
	order.Timeline = st.timelineFor(row.ID)
	return &order
}

func (st *state) timelineFor(orderID int64) []domain.TimelineEntry {
	entries := make([]domain.TimelineEntry, 0, len(st.timelineByOrder[orderID]))
	for _, id := range st.timelineByOrder[orderID] {
		entries = append(entries, st.timeline[id])
	}
	return entries
}

type timelineRepository struct{ repos }

func (r *timelineRepository) Append(ctx context.Context, entry *domain.TimelineEntry) error {
	st, unlock := r.lock()
	defer unlock()

	if _, ok := st.orders[entry.OrderID]; !ok {
		return domain.NotFound("order not found: %d", entry.OrderID)
	}
	entry.ID = st.nextID("order_timeline")
	st.timeline[entry.ID] = *entry
	st.timelineByOrder[entry.OrderID] = append(st.timelineByOrder[entry.OrderID], entry.ID)
	return nil
}

func (r *timelineRepository) ListByOrderID(ctx context.Context, orderID int64) ([]domain.TimelineEntry, error) {
	st, unlock := r.lock()
	defer unlock()
	return st.timelineFor(orderID), nil
}

type cartRepository struct{ repos }

func (r *cartRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	st, unlock := r.lock()
	defer unlock()

	if _, ok := st.cartByUser[userID]; !ok {
		id := st.nextID("carts")
		st.carts[id] = cartRow{ID: id, UserID: userID, CreatedAt: r.store.clock()}
		st.cartByUser[userID] = id
	}
	return st.assembleCart(userID)
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	st, unlock := r.lock()
	defer unlock()
	return st.assembleCart(userID)
}

// FindByUserIDForUpdate needs no row lock here: a transaction already holds
// the store mutex.
func (r *cartRepository) FindByUserIDForUpdate(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

func (st *state) assembleCart(userID int64) (*domain.Cart, error) {
	id, ok := st.cartByUser[userID]
	if !ok {
		return nil, domain.NotFound("cart not found for user %d", userID)
	}
	row := st.carts[id]

	cart := &domain.Cart{ID: row.ID, UserID: row.UserID, CreatedAt: row.CreatedAt, Items: []domain.CartItem{}}
	for _, itemID := range st.cartItemsByCart[id] {
		itemRow := st.cartItems[itemID]
		item := domain.CartItem{
			ID:        itemRow.ID,
			CartID:    itemRow.CartID,
			ProductID: itemRow.ProductID,
			Quantity:  itemRow.Quantity,
			Price:     decimal.Zero,
		}
		if product, ok := st.products[itemRow.ProductID]; ok {
			item.ProductName = product.Name
			item.Price = product.Price
			item.Available = product.Available
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func (st *state) findCartItem(cartID, productID int64) (int64, bool) {
	for _, id := range st.cartItemsByCart[cartID] {
		if st.cartItems[id].ProductID == productID {
			return id, true
		}
	}
	return 0, false
}

func (r *cartRepository) AddOrIncrementItem(ctx context.Context, cartID, productID int64, quantity int) error {
	st, unlock := r.lock()
	defer unlock()

	if id, ok := st.findCartItem(cartID, productID); ok {
		row := st.cartItems[id]
		row.Quantity += quantity
		st.cartItems[id] = row
		return nil
	}

	id := st.nextID("cart_items")
	st.cartItems[id] = cartItemRow{ID: id, CartID: cartID, ProductID: productID, Quantity: quantity}
	st.cartItemsByCart[cartID] = append(st.cartItemsByCart[cartID], id)
	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	st, unlock := r.lock()
	defer unlock()

	id, ok := st.findCartItem(cartID, productID)
	if !ok {
		return domain.NotFound("product %d is not in the cart", productID)
	}
	row := st.cartItems[id]
	row.Quantity = quantity
	st.cartItems[id] = row
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	st, unlock := r.lock()
	defer unlock()

	id, ok := st.findCartItem(cartID, productID)
	if !ok {
		return domain.NotFound("product %d is not in the cart", productID)
	}
	delete(st.cartItems, id)
	st.cartItemsByCart[cartID] = slices.DeleteFunc(slices.Clone(st.cartItemsByCart[cartID]),
		func(v int64) bool { return v == id })
	return nil
}

func (r *cartRepository) ClearItems(ctx context.Context, cartID int64) error {
	st, unlock := r.lock()
	defer unlock()

	for _, id := range st.cartItemsByCart[cartID] {
		delete(st.cartItems, id)
	}
	delete(st.cartItemsByCart, cartID)
	return nil
}

type wishlistRepository struct{ repos }

func (r *wishlistRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	st, unlock := r.lock()
	defer unlock()

	if _, ok := st.wishlistByUser[userID]; !ok {
		id := st.nextID("wishlists")
		st.wishlists[id] = domain.Wishlist{ID: id, UserID: userID, CreatedAt: r.store.clock()}
		st.wishlistByUser[userID] = id
	}
	wishlist := st.wishlists[st.wishlistByUser[userID]]
	return &wishlist, nil
}

func (r *wishlistRepository) FindByUserID(ctx context.Context, userID int64) (*domain.Wishlist, error) {
	st, unlock := r.lock()
	defer unlock()

	id, ok := st.wishlistByUser[userID]
	if !ok {
		return nil, domain.NotFound("wishlist not found for user %d", userID)
	}
	wishlist := st.wishlists[id]
	return &wishlist, nil
}

func (st *state) findWishlistItem(wishlistID, productID int64) (int64, bool) {
	for _, id := range st.wishlistItemsByWishlist[wishlistID] {
		if st.wishlistItems[id].ProductID == productID {
			return id, true
		}
	}
	return 0, false
}

func (st *state) assembleWishlistItem(row wishlistItemRow) domain.WishlistItem {
	item := domain.WishlistItem{
		ID:           row.ID,
		WishlistID:   row.WishlistID,
		ProductID:    row.ProductID,
		ProductPrice: decimal.Zero,
	}
	if product, ok := st.products[row.ProductID]; ok {
		item.ProductName = product.Name
		item.ProductPrice = product.Price
		item.Available = product.Available
	}
	return item
}

func (r *wishlistRepository) FindItem(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error) {
	st, unlock := r.lock()
	defer unlock()

	id, ok := st.findWishlistItem(wishlistID, productID)
	if !ok {
		return nil, domain.NotFound("product %d is not in the wishlist", productID)
	}
	item := st.assembleWishlistItem(st.wishlistItems[id])
	return &item, nil
}

// AddItem enforces the (wishlist, product) uniqueness the SQL schema declares.
func (r *wishlistRepository) AddItem(ctx context.Context, wishlistID, productID int64) (*domain.WishlistItem, error) {
	st, unlock := r.lock()
	defer unlock()

	if _, ok := st.findWishlistItem(wishlistID, productID); ok {
		return nil, domain.DuplicateItem("product %d is already in the wishlist", productID)
	}

	row := wishlistItemRow{ID: st.nextID("wishlist_items"), WishlistID: wishlistID, ProductID: productID}
	st.wishlistItems[row.ID] = row
	st.wishlistItemsByWishlist[wishlistID] = append(st.wishlistItemsByWishlist[wishlistID], row.ID)

	item := st.assembleWishlistItem(row)
	return &item, nil
}

func (r *wishlistRepository) RemoveItem(ctx context.Context, wishlistID, productID int64) error {
	st, unlock := r.lock()
	defer unlock()

	id, ok := st.findWishlistItem(wishlistID, productID)
	if !ok {
		return domain.NotFound("product %d is not in the wishlist", productID)
	}
	delete(st.wishlistItems, id)
	st.wishlistItemsByWishlist[wishlistID] = slices.DeleteFunc(slices.Clone(st.wishlistItemsByWishlist[wishlistID]),
		func(v int64) bool { return v == id })
	return nil
}

func (r *wishlistRepository) ListItems(ctx context.Context, wishlistID int64, page domain.PageRequest) ([]domain.WishlistItem, int64, error) {
	st, unlock := r.lock()
	defer unlock()

	ids := slices.Clone(st.wishlistItemsByWishlist[wishlistID])
	if page.SortDir == domain.SortDesc {
		slices.Reverse(ids)
	}

	total := int64(len(ids))
	start := min(page.Offset(), len(ids))
	end := min(start+page.PageSize, len(ids))

	items := make([]domain.WishlistItem, 0, end-start)
	for _, id := range ids[start:end] {
		items = append(items, st.assembleWishlistItem(st.wishlistItems[id]))
	}
	return items, total, nil
}

func (r *wishlistRepository) ClearItems(ctx context.Context, wishlistID int64) error {
	st, unlock := r.lock()
	defer unlock()

	for _, id := range st.wishlistItemsByWishlist[wishlistID] {
		delete(st.wishlistItems, id)
	}
	delete(st.wishlistItemsByWishlist, wishlistID)
	return nil
}

type catalogRepository struct{ repos }

func (r *catalogRepository) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	st, unlock := r.lock()
	defer unlock()

	product, ok := st.products[id]
	if !ok {
		return nil, domain.NotFound("product not found: %d", id)
	}
	return &product, nil
}

func (r *catalogRepository) FindPaymentMethodByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	st, unlock := r.lock()
	defer unlock()

	method, ok := st.paymentMethods[id]
	if !ok {
		return nil, domain.NotFound("payment method not found: %d", id)
	}
	return &method, nil
}

func (r *catalogRepository) FindAddressByID(ctx context.Context, id int64) (*domain.Address, error) {
	st, unlock := r.lock()
	defer unlock()

	address, ok := st.addresses[id]
	if !ok {
		return nil, domain.NotFound("address not found: %d", id)
	}
	return &address, nil
}
