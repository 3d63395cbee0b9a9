package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// runStoreContract exercises the behavior every DocumentStore must share
func runStoreContract(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	t.Run("empty collection lists nothing", func(t *testing.T) {
		docs, err := s.List(ctx, "empty")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		_, err := s.Get(ctx, "things", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create get list in creation order", func(t *testing.T) {
		ids := make([]string, 0, 3)
		for _, name := range []string{"first", "second", "third"} {
			id, err := s.Create(ctx, "ordered", mustJSON(t, testDoc{Name: name, Quantity: 1}))
			require.NoError(t, err)
			require.NotEmpty(t, id)
			ids = append(ids, id)
		}

		doc, err := s.Get(ctx, "ordered", ids[1])
		require.NoError(t, err)
		var got testDoc
		require.NoError(t, doc.Decode(&got))
		assert.Equal(t, "second", got.Name)

		docs, err := s.List(ctx, "ordered")
		require.NoError(t, err)
		require.Len(t, docs, 3)
		for i, d := range docs {
			assert.Equal(t, ids[i], d.ID)
		}
	})

	t.Run("update merges fields", func(t *testing.T) {
		id, err := s.Create(ctx, "merge", mustJSON(t, testDoc{Name: "widget", Quantity: 1, Note: "keep"}))
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, "merge", id, map[string]interface{}{"quantity": 4}))

		doc, err := s.Get(ctx, "merge", id)
		require.NoError(t, err)
		var got testDoc
		require.NoError(t, doc.Decode(&got))
		assert.Equal(t, testDoc{Name: "widget", Quantity: 4, Note: "keep"}, got)
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		err := s.Update(ctx, "merge", "missing", map[string]interface{}{"quantity": 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete removes and tolerates missing", func(t *testing.T) {
		id, err := s.Create(ctx, "deletes", mustJSON(t, testDoc{Name: "gone"}))
		require.NoError(t, err)
		keep, err := s.Create(ctx, "deletes", mustJSON(t, testDoc{Name: "kept"}))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "deletes", id))
		require.NoError(t, s.Delete(ctx, "deletes", id))

		_, err = s.Get(ctx, "deletes", id)
		assert.ErrorIs(t, err, ErrNotFound)

		docs, err := s.List(ctx, "deletes")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, keep, docs[0].ID)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		id, err := s.Create(ctx, "left", mustJSON(t, testDoc{Name: "l"}))
		require.NoError(t, err)

		_, err = s.Get(ctx, "right", id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMergePatch(t *testing.T) {
	merged, err := mergePatch([]byte(`{"a":1,"b":"x"}`), map[string]interface{}{"b": "y", "c": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":"y","c":true}`, string(merged))

	merged, err = mergePatch(nil, map[string]interface{}{"a": 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(merged))

	_, err = mergePatch([]byte(`[1,2]`), map[string]interface{}{"a": 2})
	assert.Error(t, err)
}
