package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore keeps each collection in a hash (id -> JSON body) plus a sorted
// set recording creation order.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore wraps a connected client; keys are namespaced by prefix
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "storefront"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) docsKey(collection string) string {
	return fmt.Sprintf("%s:%s:docs", s.prefix, collection)
}

func (s *RedisStore) orderKey(collection string) string {
	return fmt.Sprintf("%s:%s:order", s.prefix, collection)
}

func (s *RedisStore) seqKey(collection string) string {
	return fmt.Sprintf("%s:%s:seq", s.prefix, collection)
}

// List returns every document of a collection in creation order
func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	ids, err := s.rdb.ZRange(ctx, s.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	if len(ids) == 0 {
		return []Document{}, nil
	}

	bodies, err := s.rdb.HMGet(ctx, s.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}

	out := make([]Document, 0, len(ids))
	for i, raw := range bodies {
		body, ok := raw.(string)
		if !ok {
			continue
		}
		out = append(out, Document{ID: ids[i], Body: []byte(body)})
	}
	return out, nil
}

// Get retrieves a document by id
func (s *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	body, err := s.rdb.HGet(ctx, s.docsKey(collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Body: body}, nil
}

// Create stores a new document under a random id
func (s *RedisStore) Create(ctx context.Context, collection string, body []byte) (string, error) {
	seq, err := s.rdb.Incr(ctx, s.seqKey(collection)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate sequence for %s: %w", collection, err)
	}

	id := uuid.New().String()
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docsKey(collection), id, body)
		pipe.ZAdd(ctx, s.orderKey(collection), &redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", collection, err)
	}
	return id, nil
}

// Update merges patch into an existing document. Read and write are separate
// round trips.
func (s *RedisStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}

	merged, err := mergePatch(doc.Body, patch)
	if err != nil {
		return err
	}

	if err := s.rdb.HSet(ctx, s.docsKey(collection), id, merged).Err(); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes a document
func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.docsKey(collection), id)
		pipe.ZRem(ctx, s.orderKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close is a no-op; the client is owned by redisclient
func (s *RedisStore) Close() error {
	return nil
}
