package storage

import (
	"context"
	"strings"
	"sync"
)

// MemoryProvider is an in-memory Provider used by tests and as a fallback
// when no durable store is configured. Values are copied on the way in and
// out so callers cannot alias the internal map.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string][]byte)}
}

func (p *MemoryProvider) Get(ctx context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (p *MemoryProvider) Set(ctx context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = append([]byte(nil), value...)
	return nil
}

func (p *MemoryProvider) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, key)
	return nil
}

func (p *MemoryProvider) Has(ctx context.Context, key string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.data[key]
	return ok, nil
}

func (p *MemoryProvider) ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	result := make(map[string][]byte)
	for k, v := range p.data {
		if strings.HasPrefix(k, prefix) {
			result[k] = append([]byte(nil), v...)
		}
	}
	return result, nil
}

func (p *MemoryProvider) DeletePrefix(ctx context.Context, prefix string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.data {
		if strings.HasPrefix(k, prefix) {
			delete(p.data, k)
		}
	}
	return nil
}

func (p *MemoryProvider) Close() error { return nil }
