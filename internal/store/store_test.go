package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// storeSuite runs the BlobStore contract against any implementation.
func storeSuite(t *testing.T, open func(t *testing.T) BlobStore) {
	ctx := context.Background()

	t.Run("put then get round-trips", func(t *testing.T) {
		s := open(t)
		doc := json.RawMessage(`{"id":"wf-1","nodes":[]}`)
		require.NoError(t, s.Put(ctx, "savedWorkflow", doc))

		got, err := s.Get(ctx, "savedWorkflow")
		require.NoError(t, err)
		assert.JSONEq(t, string(doc), string(got))
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Put(ctx, "k", json.RawMessage(`{"v":1}`)))
		require.NoError(t, s.Put(ctx, "k", json.RawMessage(`{"v":2}`)))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("get absent key is not found", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(ctx, "missing")
		require.Error(t, err)
		assert.True(t, schema.IsNotFound(err))
	})

	t.Run("delete removes and delete absent fails", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Put(ctx, "k", json.RawMessage(`{}`)))
		require.NoError(t, s.Delete(ctx, "k"))

		_, err := s.Get(ctx, "k")
		assert.True(t, schema.IsNotFound(err))
		assert.True(t, schema.IsNotFound(s.Delete(ctx, "k")))
	})

	t.Run("list returns sorted keys", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Put(ctx, "b", json.RawMessage(`{}`)))
		require.NoError(t, s.Put(ctx, "a", json.RawMessage(`{}`)))
		require.NoError(t, s.Put(ctx, "c", json.RawMessage(`{}`)))

		keys, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, keys)
	})
}

func TestMemoryStore(t *testing.T) {
	storeSuite(t, func(t *testing.T) BlobStore {
		return NewMemoryStore()
	})
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", json.RawMessage(`{"v":1}`)))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'X'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(again))
}

func TestLibSQLStore(t *testing.T) {
	storeSuite(t, func(t *testing.T) BlobStore {
		dbPath := "file:" + filepath.Join(t.TempDir(), "blobs.db")
		s, err := NewLibSQLStore(context.Background(), dbPath)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestLibSQLStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := "file:" + filepath.Join(t.TempDir(), "blobs.db")

	s, err := NewLibSQLStore(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "savedWorkflow", json.RawMessage(`{"id":"wf-1"}`)))
	require.NoError(t, s.Close())

	s2, err := NewLibSQLStore(ctx, dbPath)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "savedWorkflow")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"wf-1"}`, string(got))
}

func TestLibSQLStore_SchemaAppliedOnce(t *testing.T) {
	ctx := context.Background()
	dbPath := "file:" + filepath.Join(t.TempDir(), "blobs.db")

	s, err := NewLibSQLStore(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening the same file must skip the apply, not re-record it.
	s2, err := NewLibSQLStore(ctx, dbPath)
	require.NoError(t, err)
	defer s2.Close()

	var count, version int
	require.NoError(t, s2.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(version), 0) FROM schema_version`).Scan(&count, &version))
	assert.Equal(t, 1, count)
	assert.Equal(t, schemaVersion, version)

	require.NoError(t, s2.Put(ctx, "k", json.RawMessage(`{}`)))
}
