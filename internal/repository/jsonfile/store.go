// Package jsonfile persists the store as three JSON documents (users.json,
// products.json, orders.json), each an array rewritten wholesale on change.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/storefront/internal/repository"
)

const (
	UsersFile    = "users.json"
	ProductsFile = "products.json"
	OrdersFile   = "orders.json"
)

// Store is a repository.Store backed by JSON files in a directory.
type Store struct {
	*repository.SnapshotStore

	dir    string
	logger *slog.Logger
}

// Open loads the three collections from dir, creating the directory and any
// missing file. A missing products file is created with the seed catalog.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{dir: dir, logger: logger}
	data := &repository.Dataset{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return load(ctx, s, UsersFile, &data.Users, nil)
	})
	g.Go(func() error {
		return load(ctx, s, ProductsFile, &data.Products, repository.SeedProducts())
	})
	g.Go(func() error {
		return load(ctx, s, OrdersFile, &data.Orders, nil)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.SnapshotStore = repository.NewSnapshotStore(data, s)

	logger.Info("json store opened",
		"dir", dir,
		"users", len(data.Users),
		"products", len(data.Products),
		"orders", len(data.Orders),
	)
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// load decodes name into target. When the file does not exist it is created
// holding initial.
func load[T any](ctx context.Context, s *Store, name string, target *[]T, initial []T) error {
	path := filepath.Join(s.dir, name)

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if initial == nil {
			initial = []T{}
		}
		encoded, err := encode(initial)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := writeFileAtomic(s.dir, name, encoded); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", name, err)
		}
		s.logger.Info("initialized data file", "file", name, "records", len(initial))
		*target = initial
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		*target = []T{}
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// Persist writes the changed collections. Each file is staged to a temp file
// and renamed into place; if a later rename fails the files already replaced
// are restored from their previous content.
func (s *Store) Persist(ctx context.Context, data *repository.Dataset, changed repository.Collection) error {
	var files []stagedFile
	add := func(c repository.Collection, name string, v any) error {
		if !changed.Has(c) {
			return nil
		}
		encoded, err := encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		files = append(files, stagedFile{name: name, encoded: encoded})
		return nil
	}

	// Orders first: a crash between renames leaves an order whose stock
	// decrement is missing rather than stock taken for no order.
	if err := add(repository.CollectionOrders, OrdersFile, nonNil(data.Orders)); err != nil {
		return err
	}
	if err := add(repository.CollectionProducts, ProductsFile, nonNil(data.Products)); err != nil {
		return err
	}
	if err := add(repository.CollectionUsers, UsersFile, nonNil(data.Users)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var written []stagedFile
	for _, f := range files {
		previous, readErr := os.ReadFile(filepath.Join(s.dir, f.name))
		if err := writeFileAtomic(s.dir, f.name, f.encoded); err != nil {
			s.restore(written)
			s.logger.Error("failed to write data file", "file", f.name, "error", err)
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if readErr == nil {
			written = append(written, stagedFile{name: f.name, encoded: previous})
		}
	}
	return nil
}

// restore puts back the previous content of files already replaced.
func (s *Store) restore(previous []stagedFile) {
	for _, p := range previous {
		if err := writeFileAtomic(s.dir, p.name, p.encoded); err != nil {
			s.logger.Error("failed to restore data file", "file", p.name, "error", err)
		}
	}
}

type stagedFile struct {
	name    string
	encoded []byte
}

func encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeFileAtomic writes data to dir/name via a synced temp file and rename.
func writeFileAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}
