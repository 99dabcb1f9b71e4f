package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/persona/core"
)

// MemoryStore 是内存实现的 KeyValueStore，用于测试/开发/原型。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*entry
	hashes map[string]map[string][]byte
	clean  *time.Ticker
	stop   chan struct{}
}

type entry struct {
	value []byte
	ttl   *time.Time
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:   make(map[string]*entry),
		hashes: make(map[string]map[string][]byte),
		clean:  time.NewTicker(10 * time.Second),
		stop:   make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if e.ttl != nil && time.Now().After(*e.ttl) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		expire := time.Now().Add(time.Duration(ttl[0]) * time.Second)
		e.ttl = &expire
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.hashes, key)
	return nil
}

func (m *MemoryStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hashes[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	v, ok := h[field]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}

func (m *MemoryStore) HSet(ctx context.Context, key, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string][]byte)
	}
	m.hashes[key][field] = value
	return nil
}

func (m *MemoryStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hashes[key]
	if !ok {
		return map[string][]byte{}, nil
	}
	out := make(map[string][]byte, len(h))
	for f, v := range h {
		out[f] = v
	}
	return out, nil
}

func (m *MemoryStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string][]byte)
	}
	cur := parseInt64(m.hashes[key][field])
	cur += delta
	m.hashes[key][field] = formatInt64(cur)
	return cur, nil
}

func (m *MemoryStore) Close() error {
	m.clean.Stop()
	close(m.stop)
	return nil
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.clean.C:
			m.mu.Lock()
			now := time.Now()
			for k, e := range m.data {
				if e.ttl != nil && now.After(*e.ttl) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

var _ core.KeyValueStore = (*MemoryStore)(nil)
