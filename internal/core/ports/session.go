package ports

import "context"

// KeyValueStore is the persistence surface behind the session store. Get
// reports ok=false for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Navigator transfers control to a route.
type Navigator interface {
	Navigate(route string)
}
