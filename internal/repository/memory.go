package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

// Collection identifies one of the persisted collections. Values combine as
// a bit set.
type Collection uint8

const (
	CollectionUsers Collection = 1 << iota
	CollectionProducts
	CollectionOrders
)

// Has reports whether c includes other.
func (c Collection) Has(other Collection) bool {
	return c&other != 0
}

// Dataset is a full copy of the three collections.
type Dataset struct {
	Users    []models.User
	Products []models.Product
	Orders   []models.Order
}

// Clone copies the collection slices. Records are values, so edits on the
// clone never reach the original.
func (d *Dataset) Clone() *Dataset {
	return &Dataset{
		Users:    slices.Clone(d.Users),
		Products: slices.Clone(d.Products),
		Orders:   slices.Clone(d.Orders),
	}
}

// Persister writes the collections named in changed. It is called with the
// store's write lock held, so calls never overlap.
type Persister interface {
	Persist(ctx context.Context, data *Dataset, changed Collection) error
}

// SnapshotStore implements Store over an in-memory Dataset. Writers are
// serialized behind one lock and work on a private clone that replaces the
// live dataset only after fn and the optional Persister both succeed.
type SnapshotStore struct {
	mu        sync.RWMutex
	data      *Dataset
	persister Persister
}

// NewInMemoryStore creates a non-persistent store seeded with the default catalog
func NewInMemoryStore() *SnapshotStore {
	return NewSnapshotStore(&Dataset{Products: SeedProducts()}, nil)
}

// NewSnapshotStore creates a store over data. persister may be nil.
func NewSnapshotStore(data *Dataset, persister Persister) *SnapshotStore {
	if data == nil {
		data = &Dataset{}
	}
	return &SnapshotStore{
		data:      data,
		persister: persister,
	}
}

// RunAtomic runs fn against a private copy of the dataset and commits it.
func (s *SnapshotStore) RunAtomic(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &snapshotTx{data: s.data.Clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.changed == 0 {
		return nil
	}

	if s.persister != nil {
		if err := s.persister.Persist(ctx, tx.data, tx.changed); err != nil {
			return err
		}
	}

	s.data = tx.data
	return nil
}

// Snapshot returns a copy of the live dataset.
func (s *SnapshotStore) Snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Close is a no-op.
func (s *SnapshotStore) Close() error {
	return nil
}

func (s *SnapshotStore) Users() UserRepository {
	return storeUsers{s: s}
}

func (s *SnapshotStore) Products() ProductRepository {
	return storeProducts{s: s}
}

func (s *SnapshotStore) Orders() OrderRepository {
	return storeOrders{s: s}
}

// view runs fn against the live dataset under the read lock. fn must not write.
func (s *SnapshotStore) view(fn func(tx *snapshotTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&snapshotTx{data: s.data})
}

// snapshotTx is the unit of work handed to RunAtomic callers.
type snapshotTx struct {
	data    *Dataset
	changed Collection
}

func (tx *snapshotTx) Users() UserRepository {
	return txUsers{tx: tx}
}

func (tx *snapshotTx) Products() ProductRepository {
	return txProducts{tx: tx}
}

func (tx *snapshotTx) Orders() OrderRepository {
	return txOrders{tx: tx}
}

type txProducts struct{ tx *snapshotTx }

func (r txProducts) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0, len(r.tx.data.Products))
	return append(products, r.tx.data.Products...), nil
}

func (r txProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	i := r.index(id)
	if i < 0 {
		return nil, ErrProductNotFound
	}
	product := r.tx.data.Products[i]
	return &product, nil
}

func (r txProducts) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	var maxID int64
	for _, p := range r.tx.data.Products {
		maxID = max(maxID, p.ID)
	}
	product.ID = maxID + 1

	r.tx.data.Products = append(r.tx.data.Products, product)
	r.tx.changed |= CollectionProducts
	return &product, nil
}

func (r txProducts) Update(ctx context.Context, product models.Product) error {
	i := r.index(product.ID)
	if i < 0 {
		return ErrProductNotFound
	}
	r.tx.data.Products[i] = product
	r.tx.changed |= CollectionProducts
	return nil
}

func (r txProducts) Delete(ctx context.Context, id int64) error {
	i := r.index(id)
	if i < 0 {
		return ErrProductNotFound
	}
	r.tx.data.Products = slices.Delete(r.tx.data.Products, i, i+1)
	r.tx.changed |= CollectionProducts
	return nil
}

func (r txProducts) DecrementStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	i := r.index(id)
	if i < 0 {
		return nil, ErrProductNotFound
	}
	p := &r.tx.data.Products[i]
	p.Stock = max(0, p.Stock-quantity)
	r.tx.changed |= CollectionProducts

	product := *p
	return &product, nil
}

func (r txProducts) index(id int64) int {
	return slices.IndexFunc(r.tx.data.Products, func(p models.Product) bool {
		return p.ID == id
	})
}

type txUsers struct{ tx *snapshotTx }

func (r txUsers) Create(ctx context.Context, user models.User) error {
	for _, u := range r.tx.data.Users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}
	r.tx.data.Users = append(r.tx.data.Users, user)
	r.tx.changed |= CollectionUsers
	return nil
}

func (r txUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range r.tx.data.Users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r txUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.tx.data.Users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r txUsers) Count(ctx context.Context) (int, error) {
	return len(r.tx.data.Users), nil
}

type txOrders struct{ tx *snapshotTx }

func (r txOrders) Create(ctx context.Context, order models.Order) error {
	r.tx.data.Orders = append(r.tx.data.Orders, order)
	r.tx.changed |= CollectionOrders
	return nil
}

func (r txOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	for _, o := range r.tx.data.Orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (r txOrders) Count(ctx context.Context) (int, error) {
	return len(r.tx.data.Orders), nil
}

// The store-level repositories wrap each call in its own view or RunAtomic.

type storeProducts struct{ s *SnapshotStore }

func (r storeProducts) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		products, err = tx.Products().GetAll(ctx)
		return err
	})
	return products, err
}

func (r storeProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product *models.Product
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		product, err = tx.Products().GetByID(ctx, id)
		return err
	})
	return product, err
}

func (r storeProducts) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	var created *models.Product
	err := r.s.RunAtomic(ctx, func(tx Tx) error {
		var err error
		created, err = tx.Products().Create(ctx, product)
		return err
	})
	return created, err
}

func (r storeProducts) Update(ctx context.Context, product models.Product) error {
	return r.s.RunAtomic(ctx, func(tx Tx) error {
		return tx.Products().Update(ctx, product)
	})
}

func (r storeProducts) Delete(ctx context.Context, id int64) error {
	return r.s.RunAtomic(ctx, func(tx Tx) error {
		return tx.Products().Delete(ctx, id)
	})
}

func (r storeProducts) DecrementStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	var product *models.Product
	err := r.s.RunAtomic(ctx, func(tx Tx) error {
		var err error
		product, err = tx.Products().DecrementStock(ctx, id, quantity)
		return err
	})
	return product, err
}

type storeUsers struct{ s *SnapshotStore }

func (r storeUsers) Create(ctx context.Context, user models.User) error {
	return r.s.RunAtomic(ctx, func(tx Tx) error {
		return tx.Users().Create(ctx, user)
	})
}

func (r storeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		return err
	})
	return user, err
}

func (r storeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		user, err = tx.Users().GetByEmail(ctx, email)
		return err
	})
	return user, err
}

func (r storeUsers) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		n, err = tx.Users().Count(ctx)
		return err
	})
	return n, err
}

type storeOrders struct{ s *SnapshotStore }

func (r storeOrders) Create(ctx context.Context, order models.Order) error {
	return r.s.RunAtomic(ctx, func(tx Tx) error {
		return tx.Orders().Create(ctx, order)
	})
}

func (r storeOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		orders, err = tx.Orders().ListByUser(ctx, userID)
		return err
	})
	return orders, err
}

func (r storeOrders) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.view(func(tx *snapshotTx) error {
		var err error
		n, err = tx.Orders().Count(ctx)
		return err
	})
	return n, err
}
