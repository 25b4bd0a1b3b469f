package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Фейковое хранилище с транзакционной семантикой: BeginTx снимает слепок
// состояния и держит мьютекс до Commit/Rollback, Rollback восстанавливает
// слепок. Это позволяет проверять атомарность и конкурентные сценарии
// без настоящей БД.

type productRow struct {
	name   string
	price  int64
	stock  int64
	active bool
}

type memStore struct {
	txMu sync.Mutex

	products    map[int64]*productRow
	carts       map[int64]map[int64]int64 // userID -> productID -> quantity
	orders      map[int64]*domain.Order
	orderNums   map[string]bool
	events      []*OutboxEvent
	nextOrderID int64
	nextItemID  int64

	snap *storeSnapshot
}

type storeSnapshot struct {
	products    map[int64]*productRow
	carts       map[int64]map[int64]int64
	orders      map[int64]*domain.Order
	orderNums   map[string]bool
	events      []*OutboxEvent
	nextOrderID int64
	nextItemID  int64
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[int64]*productRow),
		carts:     make(map[int64]map[int64]int64),
		orders:    make(map[int64]*domain.Order),
		orderNums: make(map[string]bool),
	}
}

func (s *memStore) addProduct(id int64, name string, price, stock int64, active bool) {
	s.products[id] = &productRow{name: name, price: price, stock: stock, active: active}
}

func (s *memStore) setCart(userID int64, items map[int64]int64) {
	s.carts[userID] = items
}

func (s *memStore) takeSnapshot() {
	s.snap = &storeSnapshot{
		products:    make(map[int64]*productRow, len(s.products)),
		carts:       make(map[int64]map[int64]int64, len(s.carts)),
		orders:      make(map[int64]*domain.Order, len(s.orders)),
		orderNums:   make(map[string]bool, len(s.orderNums)),
		events:      append([]*OutboxEvent(nil), s.events...),
		nextOrderID: s.nextOrderID,
		nextItemID:  s.nextItemID,
	}
	for id, p := range s.products {
		cp := *p
		s.snap.products[id] = &cp
	}
	for userID, items := range s.carts {
		cp := make(map[int64]int64, len(items))
		for pid, q := range items {
			cp[pid] = q
		}
		s.snap.carts[userID] = cp
	}
	for id, o := range s.orders {
		cp := *o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		s.snap.orders[id] = &cp
	}
	for num := range s.orderNums {
		s.snap.orderNums[num] = true
	}
}

func (s *memStore) restoreSnapshot() {
	if s.snap == nil {
		return
	}
	s.products = s.snap.products
	s.carts = s.snap.carts
	s.orders = s.snap.orders
	s.orderNums = s.snap.orderNums
	s.events = s.snap.events
	s.nextOrderID = s.snap.nextOrderID
	s.nextItemID = s.snap.nextItemID
	s.snap = nil
}

// fakeDB удовлетворяет transaction.Transactional поверх memStore.
type fakeDB struct {
	store *memStore
}

var _ transaction.Transactional = (*fakeDB)(nil)

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.BeginTx(ctx, pgx.TxOptions{})
}

func (db *fakeDB) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	db.store.txMu.Lock()
	db.store.takeSnapshot()
	return &fakeTx{store: db.store}, nil
}

// fakeTx реализует pgx.Tx ровно настолько, насколько его трогает
// транзакционный менеджер: Commit и Rollback.
type fakeTx struct {
	store *memStore
	done  bool
}

var _ pgx.Tx = (*fakeTx)(nil)

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.snap = nil
	t.store.txMu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.restoreSnapshot()
	t.store.txMu.Unlock()
	return nil
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Conn() *pgx.Conn                           { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects            { return pgx.LargeObjects{} }

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

// РЕПОЗИТОРИИ

type fakeProductRepo struct {
	store *memStore
}

func (r *fakeProductRepo) Upsert(ctx context.Context, product *domain.Product) (*UpsertProductRes, error) {
	return nil, nil
}

func (r *fakeProductRepo) GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error) {
	infos := make([]ProductInfo, 0, len(ids))
	for _, id := range ids {
		p, ok := r.store.products[id]
		if !ok {
			continue
		}
		infos = append(infos, NewProductInfo(id, p.name, "", p.price, p.active))
	}
	return infos, nil
}

func (r *fakeProductRepo) DecrementStock(ctx context.Context, productID, quantity int64) (bool, error) {
	p, ok := r.store.products[productID]
	if !ok || p.stock < quantity {
		return false, nil
	}
	p.stock -= quantity
	return true, nil
}

func (r *fakeProductRepo) IncrementStock(ctx context.Context, productID, quantity int64) error {
	p, ok := r.store.products[productID]
	if !ok {
		return e.ErrProductNotFound
	}
	p.stock += quantity
	return nil
}

func (r *fakeProductRepo) GetAvailableStock(ctx context.Context, productID int64) (int64, error) {
	p, ok := r.store.products[productID]
	if !ok {
		return 0, e.ErrProductNotFound
	}
	return p.stock, nil
}

func (r *fakeProductRepo) SetStock(ctx context.Context, productID, stock int64) error {
	p, ok := r.store.products[productID]
	if !ok {
		return e.ErrProductNotFound
	}
	p.stock = stock
	return nil
}

type fakeCartRepo struct {
	store *memStore
}

func (r *fakeCartRepo) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	if _, ok := r.store.carts[userID]; !ok {
		r.store.carts[userID] = make(map[int64]int64)
	}
	return &domain.Cart{UserID: userID}, nil
}

func (r *fakeCartRepo) GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	items := r.store.carts[userID]

	ids := make([]int64, 0, len(items))
	for pid := range items {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines := make([]domain.CartLine, 0, len(items))
	for _, pid := range ids {
		p, ok := r.store.products[pid]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{
			ProductID:   pid,
			ProductName: p.name,
			Quantity:    items[pid],
			Price:       p.price,
			Stock:       p.stock,
			IsActive:    p.active,
		})
	}
	return lines, nil
}

func (r *fakeCartRepo) AddItem(ctx context.Context, userID, productID, quantity int64) error {
	items, ok := r.store.carts[userID]
	if !ok {
		return e.ErrCartNotFound
	}
	items[productID] += quantity
	return nil
}

func (r *fakeCartRepo) SetItemQuantity(ctx context.Context, userID, productID, quantity int64) error {
	items, ok := r.store.carts[userID]
	if !ok {
		return e.ErrCartNotFound
	}
	if _, ok := items[productID]; !ok {
		return e.ErrCartItemNotFound
	}
	items[productID] = quantity
	return nil
}

func (r *fakeCartRepo) RemoveItem(ctx context.Context, userID, productID int64) error {
	items, ok := r.store.carts[userID]
	if !ok {
		return e.ErrCartNotFound
	}
	if _, ok := items[productID]; !ok {
		return e.ErrCartItemNotFound
	}
	delete(items, productID)
	return nil
}

func (r *fakeCartRepo) Clear(ctx context.Context, userID int64) error {
	r.store.carts[userID] = make(map[int64]int64)
	return nil
}

type fakeOrderRepo struct {
	store *memStore

	// collisions заставляет Create вернуть заданное число коллизий
	// номера заказа перед успехом.
	collisions int
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if r.collisions > 0 {
		r.collisions--
		return nil, e.ErrOrderNumberCollision
	}
	if r.store.orderNums[order.OrderNumber] {
		return nil, e.ErrOrderNumberCollision
	}

	r.store.nextOrderID++
	stored := *order
	stored.ID = r.store.nextOrderID
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	for i := range stored.Items {
		r.store.nextItemID++
		stored.Items[i].ID = r.store.nextItemID
		stored.Items[i].OrderID = stored.ID
	}

	r.store.orders[stored.ID] = &stored
	r.store.orderNums[stored.OrderNumber] = true

	result := stored
	result.Items = append([]domain.OrderItem(nil), stored.Items...)
	return &result, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, orderID int64) (*domain.Order, error) {
	return r.GetByID(ctx, orderID)
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	// Как и SQL-репозиторий, возвращает заказ без позиций.
	cp := *o
	cp.Items = nil
	return &cp, nil
}

func (r *fakeOrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	for _, o := range r.store.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (r *fakeOrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	for _, o := range r.store.orders {
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

type fakeOutboxRepo struct {
	store *memStore
}

func (r *fakeOutboxRepo) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	cp := *event
	cp.ID = int64(len(r.store.events) + 1)
	r.store.events = append(r.store.events, &cp)
	return &cp, nil
}

func (r *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	var batch []*OutboxEvent
	for _, ev := range r.store.events {
		if ev.Status == Pending && len(batch) < limit {
			ev.Status = Processing
			batch = append(batch, ev)
		}
	}
	return batch, nil
}

func (r *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	for _, ev := range r.store.events {
		if ev.ID == id && ev.Status == Processing {
			ev.Status = Processed
		}
	}
	return nil
}

// nopLogger глушит логи в тестах.
type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

// newOrderFixture собирает OrderUseCase поверх фейкового хранилища.
func newOrderFixture(store *memStore) (*OrderUseCase, *fakeOrderRepo) {
	orderRepo := &fakeOrderRepo{store: store}
	uc := NewOrderUC(
		orderRepo,
		&fakeCartRepo{store: store},
		&fakeProductRepo{store: store},
		&fakeOutboxRepo{store: store},
		&fakeDB{store: store},
		nopLogger{},
	)
	return uc, orderRepo
}
