package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-decor-storefront.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("cart not found")

// Storage persists encoded carts per session.
type Storage interface {
	Load(ctx context.Context, session string) ([]byte, error)
	Save(ctx context.Context, session string, data []byte) error
	Delete(ctx context.Context, session string) error
}

// Open restores the cart of a session. A missing cart is empty; a corrupt one
// is logged, dropped from storage and replaced by an empty cart.
func Open(ctx context.Context, st Storage, session string, log *zap.Logger) (*Store, error) {
	data, err := st.Load(ctx, session)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s, err := Restore(data)
	if err != nil {
		log.Warn("resetting corrupt cart", zap.String("session", session), zap.Error(err))
		if derr := st.Delete(ctx, session); derr != nil {
			log.Warn("delete corrupt cart", zap.String("session", session), zap.Error(derr))
		}
	}
	return s, nil
}

// Persist writes s back, deleting the stored entry when the cart is empty.
func Persist(ctx context.Context, st Storage, session string, s *Store) error {
	if s.Empty() {
		return st.Delete(ctx, session)
	}
	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return st.Save(ctx, session, data)
}

// RedisStorage keeps carts under cart:{session} with a sliding TTL.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (r *RedisStorage) Load(ctx context.Context, session string) ([]byte, error) {
	data, err := r.client.Get(ctx, storageKey(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, session string, data []byte) error {
	if err := r.client.Set(ctx, storageKey(session), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, session string) error {
	if err := r.client.Del(ctx, storageKey(session)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storageKey(session string) string {
	return fmt.Sprintf(redisx.KeyCart, session)
}

// MemoryStorage is an in-process Storage for development and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, session string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.carts[session]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Save(_ context.Context, session string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[session] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, session)
	return nil
}
