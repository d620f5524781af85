package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileBackendRoundTrip(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	key := DefaultNamespace + "/market/search?q=river view&beds=2"
	require.NoError(t, backend.Write(key, []byte(`{"data":[1,2]}`)))

	data, err := backend.Read(key)
	require.NoError(t, err)
	require.Equal(t, `{"data":[1,2]}`, string(data))

	keys, err := backend.Keys()
	require.NoError(t, err)
	require.Equal(t, []string{key}, keys, "keys must survive the filename encoding exactly")

	require.NoError(t, backend.Remove(key))
	_, err = backend.Read(key)
	require.Error(t, err)

	// Removing an absent key is fine.
	require.NoError(t, backend.Remove(key))
}

func TestFileBackendOverwrite(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, backend.Write("k", []byte("one")))
	require.NoError(t, backend.Write("k", []byte("two")))

	data, err := backend.Read("k")
	require.NoError(t, err)
	require.Equal(t, "two", string(data))
}

func TestMemoryBackendQuota(t *testing.T) {
	backend := NewMemoryBackend(32)

	require.NoError(t, backend.Write("a", []byte("0123456789")))
	require.ErrorIs(t, backend.Write("b", []byte("01234567890123456789012345678901")), ErrQuotaExceeded)

	// Freed space can be reused.
	require.NoError(t, backend.Remove("a"))
	require.NoError(t, backend.Write("c", []byte("0123456789")))
}

func TestMemoryBackendOverwriteAccounting(t *testing.T) {
	backend := NewMemoryBackend(64)

	require.NoError(t, backend.Write("k", []byte("0123456789012345678901234567890123456789")))
	// Shrinking the value must free quota for a second key.
	require.NoError(t, backend.Write("k", []byte("01")))
	require.NoError(t, backend.Write("j", []byte("0123456789012345678901234567890123456789")))
}
