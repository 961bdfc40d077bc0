package usecase_test

import (
	"context"
	"sync"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// =====================
// インメモリのfake。並行実行のテストで本物のgorm実装の代わりに使う。
// Reserve/Releaseは実装と同じ「条件付き更新1回」の意味論をmutexで再現する。
// =====================

type stockRecord struct {
	Stock     int64
	Available bool
}

type memInventory struct {
	mu          sync.Mutex
	stocks      map[int64]*stockRecord
	releaseErrs map[int64]error
}

func newMemInventory() *memInventory {
	return &memInventory{
		stocks:      map[int64]*stockRecord{},
		releaseErrs: map[int64]error{},
	}
}

// 指定商品のReleaseをインフラ障害として失敗させる
func (m *memInventory) failRelease(productID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseErrs[productID] = err
}

func (m *memInventory) set(productID int64, stock int64, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[productID] = &stockRecord{Stock: stock, Available: available}
}

func (m *memInventory) stockOf(productID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.stocks[productID]; ok {
		return rec.Stock
	}
	return 0
}

func (m *memInventory) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.stocks[productID]
	if !ok || !rec.Available || rec.Stock < qty {
		return false, nil
	}
	rec.Stock -= qty
	return true, nil
}

func (m *memInventory) ReserveBatch(ctx context.Context, quantities map[int64]int64) (map[int64]bool, error) {
	results := make(map[int64]bool, len(quantities))
	for id, qty := range quantities {
		ok, err := m.Reserve(ctx, id, qty)
		if err != nil {
			return results, err
		}
		results[id] = ok
	}
	return results, nil
}

func (m *memInventory) Release(ctx context.Context, productID int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.releaseErrs[productID]; ok {
		return false, err
	}

	rec, ok := m.stocks[productID]
	if !ok {
		return false, nil
	}
	rec.Stock += qty
	return true, nil
}

func (m *memInventory) CheckAvailability(ctx context.Context, productID int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.stocks[productID]
	if !ok {
		return false, repo.ErrNotFound
	}
	return rec.Available && rec.Stock >= qty, nil
}

type memOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]model.Order
}

func newMemOrders() *memOrders {
	return &memOrders{nextID: 1, orders: map[int64]model.Order{}}
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) ListByStatus(ctx context.Context, status model.OrderStatus, page int, limit int) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (m *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = m.nextID
	m.nextID++
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	for i := range order.Events {
		order.Events[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	m.orders[orderID] = o
	return nil
}

func (m *memOrders) AppendEvent(ctx context.Context, event model.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[event.OrderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Events = append(o.Events, event)
	m.orders[event.OrderID] = o
	return nil
}

func (m *memOrders) UpdatePayment(ctx context.Context, orderID int64, payment model.OrderPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Payment = payment
	m.orders[orderID] = o
	return nil
}

func (m *memOrders) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

type memCarts struct {
	mu     sync.Mutex
	nextID int64
	carts  map[int64]model.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{nextID: 1, carts: map[int64]model.Cart{}}
}

func (m *memCarts) put(cart model.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.ID] = cart
	if cart.ID >= m.nextID {
		m.nextID = cart.ID + 1
	}
}

func (m *memCarts) exists(cartID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.carts[cartID]
	return ok
}

func (m *memCarts) findLocked(identity repo.CartIdentity) (model.Cart, bool) {
	for _, c := range m.carts {
		if identity.UserID != nil && c.UserID != nil && *c.UserID == *identity.UserID {
			return c, true
		}
		if identity.SessionID != nil && c.SessionID != nil && *c.SessionID == *identity.SessionID {
			return c, true
		}
	}
	return model.Cart{}, false
}

func (m *memCarts) GetOrCreate(ctx context.Context, identity repo.CartIdentity) (model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.findLocked(identity); ok {
		return c, nil
	}

	c := model.Cart{ID: m.nextID, UserID: identity.UserID, SessionID: identity.SessionID}
	m.nextID++
	m.carts[c.ID] = c
	return c, nil
}

func (m *memCarts) Find(ctx context.Context, identity repo.CartIdentity) (model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.findLocked(identity)
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return c, nil
}

func (m *memCarts) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[cartID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return c, nil
}

// gorm実装と同じ意味論: 同一商品は数量加算、無い商品は行ごと移動、最後にsourceを削除。
func (m *memCarts) Merge(ctx context.Context, targetCartID int64, sourceCartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.carts[targetCartID]
	if !ok {
		return repo.ErrNotFound
	}
	source, ok := m.carts[sourceCartID]
	if !ok {
		return nil
	}

	for _, src := range source.Items {
		merged := false
		for i := range target.Items {
			if target.Items[i].ProductID == src.ProductID {
				target.Items[i].Quantity += src.Quantity
				merged = true
				break
			}
		}
		if !merged {
			src.CartID = targetCartID
			target.Items = append(target.Items, src)
		}
	}

	delete(m.carts, sourceCartID)
	m.carts[targetCartID] = target
	return nil
}

func (m *memCarts) Delete(ctx context.Context, cartID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[cartID]; !ok {
		return repo.ErrNotFound
	}
	delete(m.carts, cartID)
	return nil
}

type memProducts struct {
	mu       sync.Mutex
	products map[int64]model.Product
}

func newMemProducts() *memProducts {
	return &memProducts{products: map[int64]model.Product{}}
}

func (m *memProducts) put(p model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

// fakeTx はトランザクションの振りをせず、そのままfnを呼ぶ
type fakeTx struct {
	repos repo.TxRepos
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(t.repos)
}

type fakeTxRepos struct {
	orders    repo.OrderRepository
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
}

func (r *fakeTxRepos) Orders() repo.OrderRepository       { return r.orders }
func (r *fakeTxRepos) Carts() repo.CartRepository         { return r.carts }
func (r *fakeTxRepos) CartItems() repo.CartItemRepository { return r.cartItems }
func (r *fakeTxRepos) Products() repo.ProductRepository   { return r.products }
