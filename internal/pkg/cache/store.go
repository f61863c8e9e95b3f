package cache

import "time"

// Store is the key-value surface used by the tenant directory and the
// subscription gate. The production implementation is the Redis-backed
// package functions; tests substitute an in-memory map.
type Store interface {
	Get(key string) (string, error)
	Set(key string, value string, ttl time.Duration) error
	GetBool(key string) (value, found bool, err error)
	SetBool(key string, value bool, ttl time.Duration) error
	Delete(key string) error
}

type redisStore struct{}

// NewStore returns the Redis-backed Store.
func NewStore() Store {
	return redisStore{}
}

func (redisStore) Get(key string) (string, error) {
	return Get(key)
}

func (redisStore) Set(key string, value string, ttl time.Duration) error {
	return Set(key, value, ttl)
}

func (redisStore) GetBool(key string) (bool, bool, error) {
	return GetBool(key)
}

func (redisStore) SetBool(key string, value bool, ttl time.Duration) error {
	return SetBool(key, value, ttl)
}

func (redisStore) Delete(key string) error {
	return Delete(key)
}
