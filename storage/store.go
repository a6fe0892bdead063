// Package storage is the client side key/value store that plays the role of
// the browser's local storage: small string keyed JSON blobs that survive
// across sessions of the same client.
package storage

import "errors"

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("storage: key not found")

// Store is safe for concurrent use.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}
