// Package store provides the key-value persistence surface the engine saves
// session and question-bank state into, plus the session store built on top
// of it.
package store

import "context"

// KV is the persistence surface. Get returns (nil, nil) when the key does
// not exist.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SessionKey returns the storage key for a document's session record.
func SessionKey(documentID string) string { return "session:" + documentID }

// QuestionsKey returns the storage key for a document's cached question bank.
func QuestionsKey(documentID string) string { return "questions:" + documentID }
