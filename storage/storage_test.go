package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/encryption"
	"assessment-backend/models"
)

func samplePair() *models.KeyPair {
	return &models.KeyPair{
		PublicKey:  []byte(`{"scheme":"paillier","bits":512,"n":"AQID"}`),
		PrivateKey: []byte(`{"scheme":"paillier","lambda":"BAUG","mu":"BwgJ"}`),
	}
}

func stores(t *testing.T) map[string]KeyStore {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileKeyStore(filepath.Join(dir, "file"))
	require.NoError(t, err)
	sealed, err := newSealedFileKeyStore(filepath.Join(dir, "sealed"), []byte("correct horse"),
		encryption.NewCryptoService().WithScryptCost(1<<10))
	require.NoError(t, err)
	db, err := NewSQLiteKeyStore(filepath.Join(dir, "keys.db"))
	require.NoError(t, err)

	all := map[string]KeyStore{
		BackendMemory: NewMemoryKeyStore(),
		BackendFile:   file,
		BackendSealed: sealed,
		BackendSQLite: db,
	}
	t.Cleanup(func() {
		for _, s := range all {
			s.Close()
		}
	})
	return all
}

func TestKeyStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			kp := samplePair()
			require.NoError(t, s.Save("client-1", kp))

			got, ok, err := s.Load("client-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, kp, got)

			_, ok, err = s.Load("client-2")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestKeyStoreReplace(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save("client-1", samplePair()))
			next := &models.KeyPair{PublicKey: []byte("pub-2"), PrivateKey: []byte("priv-2")}
			require.NoError(t, s.Save("client-1", next))

			got, ok, err := s.Load("client-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, next, got)
		})
	}
}

func TestKeyStoreDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			// deleting nothing is fine
			require.NoError(t, s.Delete("client-1"))

			require.NoError(t, s.Save("client-1", samplePair()))
			require.NoError(t, s.Delete("client-1"))

			_, ok, err := s.Load("client-1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestKeyStoreRejectsBadIdentity(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "../etc", "a/b", ".hidden"} {
				err := s.Save(id, samplePair())
				assert.True(t, errors.Is(err, ErrInvalidIdentity), "identity %q", id)
			}
			assert.Error(t, s.Save("client-1", &models.KeyPair{}))
		})
	}
}

func TestSealedFileHidesPrivateKey(t *testing.T) {
	dir := t.TempDir()
	cs := encryption.NewCryptoService().WithScryptCost(1 << 10)
	s, err := newSealedFileKeyStore(dir, []byte("pass"), cs)
	require.NoError(t, err)
	require.NoError(t, s.Save("client-1", samplePair()))

	raw, err := os.ReadFile(filepath.Join(dir, "client-1_keys.json"))
	require.NoError(t, err)
	var rec keyFile
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.True(t, rec.Sealed)
	assert.NotEqual(t, samplePair().PrivateKey, rec.PrivateKey)

	wrong, err := newSealedFileKeyStore(dir, []byte("other"), cs)
	require.NoError(t, err)
	_, _, err = wrong.Load("client-1")
	assert.Error(t, err)

	plain, err := NewFileKeyStore(dir)
	require.NoError(t, err)
	_, _, err = plain.Load("client-1")
	assert.Error(t, err)
}

func TestOpenBackends(t *testing.T) {
	s, err := Open(Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryKeyStore{}, s)

	s, err = Open(Options{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "k.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteKeyStore{}, s)

	_, err = Open(Options{Backend: BackendSealed, Path: t.TempDir()})
	assert.Error(t, err)

	_, err = Open(Options{Backend: "redis"})
	assert.Error(t, err)
}
