// Package postgres implements repository.Store on PostgreSQL using pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

const uniqueViolation = "23505"

// Store implements repository.Store over a pgx connection pool.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// PgxExecutor is an interface that matches both *pgxpool.Pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open migrates the database at databaseURL and connects a pool to it. The
// seed catalog is inserted when the schema is created.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	fresh, err := RunMigrations(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	s := &Store{db: pool, logger: logger}
	if fresh {
		if err := s.seed(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("postgres store seeded", "products", len(repository.SeedProducts()))
	}
	return s, nil
}

func (s *Store) seed(ctx context.Context) error {
	return s.RunAtomic(ctx, func(tx repository.Tx) error {
		q := tx.(*pgTx).q
		for _, p := range repository.SeedProducts() {
			_, err := q.Exec(ctx,
				`INSERT INTO products (id, name, description, price, category, image, stock)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, p.Name, p.Description, p.Price, p.Category, p.Image, p.Stock,
			)
			if err != nil {
				return fmt.Errorf("seed product %d: %w", p.ID, err)
			}
		}
		_, err := q.Exec(ctx,
			`SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT MAX(id) FROM products))`)
		if err != nil {
			return fmt.Errorf("reset product sequence: %w", err)
		}
		return nil
	})
}

// Close closes the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// RunAtomic executes fn within a transaction
func (s *Store) RunAtomic(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.UserRepository       { return userRepo{q: s.db} }
func (s *Store) Products() repository.ProductRepository { return productRepo{q: s.db} }
func (s *Store) Orders() repository.OrderRepository     { return orderRepo{q: s.db} }

type pgTx struct {
	q PgxExecutor
}

func (t *pgTx) Users() repository.UserRepository       { return userRepo{q: t.q} }
func (t *pgTx) Products() repository.ProductRepository { return productRepo{q: t.q} }
func (t *pgTx) Orders() repository.OrderRepository     { return orderRepo{q: t.q} }

const productColumns = `id, name, description, price, category, image, stock, created_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var (
		p         models.Product
		createdAt *time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.Stock, &createdAt); err != nil {
		return nil, err
	}
	if createdAt != nil {
		t := createdAt.UTC()
		p.CreatedAt = &t
	}
	return &p, nil
}

type productRepo struct{ q PgxExecutor }

func (r productRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
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
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r productRepo) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	err := r.q.QueryRow(ctx,
		`INSERT INTO products (name, description, price, category, image, stock, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		product.Name, product.Description, product.Price, product.Category, product.Image, product.Stock,
		product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

func (r productRepo) Update(ctx context.Context, product models.Product) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET name = $1, description = $2, price = $3, category = $4, image = $5, stock = $6, created_at = $7
		 WHERE id = $8`,
		product.Name, product.Description, product.Price, product.Category, product.Image, product.Stock,
		product.CreatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

func (r productRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

func (r productRepo) DecrementStock(ctx context.Context, id int64, quantity int) (*models.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx,
		`UPDATE products SET stock = GREATEST(0, stock - $1) WHERE id = $2 RETURNING `+productColumns,
		quantity, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item stock: %w", err)
	}
	return p, nil
}

const userColumns = `id, name, email, password_hash, role, created_at`

type userRepo struct{ q PgxExecutor }

func (r userRepo) Create(ctx context.Context, user models.User) error {
	role := user.Role
	if role == "" {
		role = models.RoleCustomer
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.PasswordHash, role, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r userRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.q.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r userRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "users")
}

type orderRepo struct{ q PgxExecutor }

func (r orderRepo) Create(ctx context.Context, order models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	shipping, err := json.Marshal(order.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to encode shipping info: %w", err)
	}

	_, err = r.q.Exec(ctx,
		`INSERT INTO orders (id, user_id, items, total, currency, payment_intent_id, shipping_info, status, created_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7::jsonb, $8, $9)`,
		order.ID, order.UserID, string(items), order.Total, order.Currency, order.PaymentIntentID,
		string(shipping), order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r orderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, user_id, items, total, currency, payment_intent_id, shipping_info, status, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at, seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var (
			o               models.Order
			items, shipping []byte
		)
		if err := rows.Scan(&o.ID, &o.UserID, &items, &o.Total, &o.Currency, &o.PaymentIntentID, &shipping, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
		if err := json.Unmarshal(shipping, &o.ShippingInfo); err != nil {
			return nil, fmt.Errorf("failed to decode shipping info: %w", err)
		}
		o.CreatedAt = o.CreatedAt.UTC()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r orderRepo) Count(ctx context.Context) (int, error) {
	return count(ctx, r.q, "orders")
}

func count(ctx context.Context, q PgxExecutor, table string) (int, error) {
	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
