// Package storage is the local key-value persistence port used by the cart,
// checkout and reservation components, together with its adapters.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Well-known value names under the deployment namespace
const (
	CartKey         = "cart"
	OrdersKey       = "orders"
	ReservationsKey = "reservations"
)

// Store is a string-keyed store of serialized values.
// Get returns nil, nil when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Backend is a Store that holds resources until closed
type Backend interface {
	Store
	Close() error
}

// ErrQuotaExceeded is returned when a write would exceed the store capacity
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Error reports a failed read or write of a persisted value
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Key builds the persisted key for name under namespace, e.g. lePalankaCart
func Key(namespace, name string) string {
	if name == "" {
		return namespace
	}
	r, size := utf8.DecodeRuneInString(name)
	return namespace + string(unicode.ToUpper(r)) + name[size:]
}

// LoadJSON decodes the value stored under key into v.
// It reports false when nothing is stored yet.
func LoadJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		return false, wrap("get", key, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &Error{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key
func SaveJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &Error{Op: "encode", Key: key, Err: err}
	}
	if err := s.Set(ctx, key, data); err != nil {
		return wrap("set", key, err)
	}
	return nil
}

func wrap(op, key string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}
