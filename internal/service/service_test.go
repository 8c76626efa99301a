package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lixing-Zhang/storefront/internal/auth"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

func newAuthService(t *testing.T, store repository.Store, admins ...string) *AuthService {
	t.Helper()
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager("test-secret", 24*time.Hour)
	require.NoError(t, err)
	return NewAuthService(store.Users(), hasher, tokens, AuthOptions{
		AdminEmails: admins,
		Logger:      logger.Discard(),
	})
}

// failingPersister rejects every write so RunAtomic never commits.
type failingPersister struct{}

func (failingPersister) Persist(context.Context, *repository.Dataset, repository.Collection) error {
	return errors.New("disk full")
}

func failingStore() *repository.SnapshotStore {
	return repository.NewSnapshotStore(&repository.Dataset{Products: repository.SeedProducts()}, failingPersister{})
}

func ptr[T any](v T) *T {
	return &v
}

func validShipping() models.ShippingInfo {
	return models.ShippingInfo{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Address: "12 Analytical Row",
		City:    "London",
		Zip:     "N1 9GU",
	}
}
