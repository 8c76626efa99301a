package cart

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

func TestSession_PersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()

	storage, err := NewFileStorage(dir)
	require.NoError(t, err)
	s, err := Open(storage)
	require.NoError(t, err)

	require.NoError(t, s.SignIn(models.PublicUser{ID: "u1", Name: "Grace", Email: "grace@example.com"}, "tok"))
	require.NoError(t, s.AddItem(headphones))
	require.NoError(t, s.AddItem(headphones))
	require.NoError(t, s.AddItem(tshirt))

	assert.FileExists(t, filepath.Join(dir, "cart.json"))
	assert.FileExists(t, filepath.Join(dir, "currentUser.json"))

	reopened, err := Open(storage)
	require.NoError(t, err)

	user, ok := reopened.User()
	require.True(t, ok)
	assert.Equal(t, "grace@example.com", user.Email)
	assert.Equal(t, "tok", user.Token)

	items := reopened.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "Cotton T-Shirt", items[1].Name)
}

func TestSession_SignOutKeepsCart(t *testing.T) {
	storage := NewMemoryStorage()
	s, err := Open(storage)
	require.NoError(t, err)

	require.NoError(t, s.SignIn(models.PublicUser{ID: "u1"}, "tok"))
	require.NoError(t, s.AddItem(tshirt))
	require.NoError(t, s.SignOut())

	_, ok := s.User()
	assert.False(t, ok)

	reopened, err := Open(storage)
	require.NoError(t, err)
	_, ok = reopened.User()
	assert.False(t, ok)
	assert.Equal(t, 1, reopened.Count())
}

func TestSession_ChangeQuantityAndClear(t *testing.T) {
	storage := NewMemoryStorage()
	s, err := Open(storage)
	require.NoError(t, err)

	require.NoError(t, s.AddItem(headphones))
	require.NoError(t, s.AddItem(headphones))
	require.NoError(t, s.ChangeQuantity(1, -1))
	require.NoError(t, s.ChangeQuantity(1, -1))
	assert.Empty(t, s.Items())

	require.NoError(t, s.AddItem(tshirt))
	require.NoError(t, s.ClearCart())

	var saved []models.CartItem
	found, err := storage.Load(CartKey, &saved)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, saved)
}

// brokenStorage fails every save.
type brokenStorage struct{ *MemoryStorage }

func (brokenStorage) Save(string, any) error { return errors.New("quota exceeded") }

func TestSession_FailedSaveLeavesCartUnchanged(t *testing.T) {
	s, err := Open(brokenStorage{NewMemoryStorage()})
	require.NoError(t, err)

	err = s.AddItem(headphones)
	require.Error(t, err)
	assert.Zero(t, s.Count())
}

func TestOpen_CorruptCart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cart.json"), []byte("{not json"), 0o600))

	storage, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, err = Open(storage)
	assert.Error(t, err)
}

func TestFileStorage_DeleteMissingKey(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, storage.Delete("nothing"))

	var v []int
	found, err := storage.Load("nothing", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
