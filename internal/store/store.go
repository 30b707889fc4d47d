// Package store provides durable key-addressed JSON blob storage for saved
// workflows and scheduler state. Two implementations exist: an embedded
// libSQL database for the server and an in-memory map for tests and
// ephemeral sessions.
package store

import (
	"context"
	"encoding/json"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// BlobStore persists named JSON documents.
type BlobStore interface {
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value json.RawMessage) error
	// Get returns the value stored under key. A missing key yields a
	// NOT_FOUND error.
	Get(ctx context.Context, key string) (json.RawMessage, error)
	// Delete removes key. Deleting an absent key yields NOT_FOUND.
	Delete(ctx context.Context, key string) error
	// List returns all stored keys in lexical order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

func keyNotFound(key string) *schema.WorkflowError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "blob %q not found", key)
}
