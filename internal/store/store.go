package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document does not exist in its collection
var ErrNotFound = errors.New("document not found")

// Document is a stored JSON object together with its store-assigned id
type Document struct {
	ID   string
	Body []byte
}

// Decode unmarshals the document body into v
func (d Document) Decode(v interface{}) error {
	if err := json.Unmarshal(d.Body, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return nil
}

// DocumentStore is per-collection CRUD over JSON documents. It offers no
// transactions and no compare-and-swap.
type DocumentStore interface {
	// List returns every document of a collection in creation order
	List(ctx context.Context, collection string) ([]Document, error)
	// Get returns ErrNotFound when the document is absent
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create stores body and returns the id assigned to it
	Create(ctx context.Context, collection string, body []byte) (string, error)
	// Update shallow-merges patch into the stored object
	Update(ctx context.Context, collection, id string, patch map[string]interface{}) error
	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// mergePatch applies a shallow JSON merge of patch onto body
func mergePatch(body []byte, patch map[string]interface{}) ([]byte, error) {
	fields := make(map[string]json.RawMessage)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored document: %w", err)
		}
	}

	for key, value := range patch {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal patch field %s: %w", key, err)
		}
		fields[key] = raw
	}

	return json.Marshal(fields)
}
