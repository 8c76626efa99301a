// Package sqlite implements repository.Store on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// Store implements repository.Store over SQLite. A single connection is kept
// open so transactions are serialized by the pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens the database at path, applies migrations and seeds the catalog
// when the schema is created.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fresh, err := runMigrations(dsn)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if fresh {
		if err := s.seed(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("sqlite store seeded", "path", path, "products", len(repository.SeedProducts()))
	}

	return s, nil
}

func (s *Store) seed(ctx context.Context) error {
	return s.RunAtomic(ctx, func(tx repository.Tx) error {
		q := tx.(*sqlTx).q
		for _, p := range repository.SeedProducts() {
			_, err := q.ExecContext(ctx,
				`INSERT INTO products (id, name, description, price, category, image, stock, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
				p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock,
			)
			if err != nil {
				return fmt.Errorf("seed product %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunAtomic runs fn inside a database transaction.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.UserRepository {
	return userRepo{q: s.db}
}

func (s *Store) Products() repository.ProductRepository {
	return productRepo{q: s.db}
}

func (s *Store) Orders() repository.OrderRepository {
	return orderRepo{q: s.db}
}

type sqlTx struct {
	q querier
}

func (t *sqlTx) Users() repository.UserRepository {
	return userRepo{q: t.q}
}

func (t *sqlTx) Products() repository.ProductRepository {
	return productRepo{q: t.q}
}

func (t *sqlTx) Orders() repository.OrderRepository {
	return orderRepo{q: t.q}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

const productColumns = `id, name, description, price, category, image, stock, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p         models.Product
		createdAt sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.Stock, &createdAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		t := fromMillis(createdAt.Int64)
		p.CreatedAt = &t
	}
	return &p, nil
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

type productRepo struct{ q querier }

func (r productRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r productRepo) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO products (name, description, price, category, image, stock, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		product.Name, product.Description, product.Price, product.Category, product.Image, product.Stock,
		nullableMillis(product.CreatedAt),
	).Scan(&product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

func (r productRepo) Update(ctx context.Context, product models.Product) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, category = ?, image = ?, stock = ?, created_at = ?
		 WHERE id = ?`,
		product.Name, product.Description, product.Price, product.Category, product.Image, product.Stock,
		nullableMillis(product.CreatedAt), product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRow(res, repository.ErrProductNotFound)
}

func (r productRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRow(res, repository.ErrProductNotFound)
}

func (r productRepo) DecrementStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx,
		`UPDATE products SET stock = MAX(0, stock - ?) WHERE id = ? RETURNING `+productColumns,
		quantity, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item stock: %w", err)
	}
	return p, nil
}

type userRepo struct{ q querier }

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (r userRepo) Create(ctx context.Context, user models.User) error {
	role := user.Role
	if role == "" {
		role = models.RoleCustomer
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.PasswordHash, role, toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r userRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r userRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "users")
}

type orderRepo struct{ q querier }

func (r orderRepo) Create(ctx context.Context, order models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	shipping, err := json.Marshal(order.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to encode shipping info: %w", err)
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, items, total, currency, payment_intent_id, shipping_info, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, string(items), order.Total, order.Currency, order.PaymentIntentID,
		string(shipping), order.Status, toMillis(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r orderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, items, total, currency, payment_intent_id, shipping_info, status, created_at
		 FROM orders WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var (
			o               models.Order
			items, shipping string
			createdAt       int64
		)
		if err := rows.Scan(&o.ID, &o.UserID, &items, &o.Total, &o.Currency, &o.PaymentIntentID, &shipping, &o.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
		if err := json.Unmarshal([]byte(shipping), &o.ShippingInfo); err != nil {
			return nil, fmt.Errorf("failed to decode shipping info: %w", err)
		}
		o.CreatedAt = fromMillis(createdAt)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r orderRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "orders")
}

func count(ctx context.Context, q querier, table string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
