package cache

import (
	"errors"
	"sync"
	"time"

	"recipe-hub/internal/infrastructure/config"
	"recipe-hub/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrCacheFull 快取已滿且無法淘汰
var ErrCacheFull = errors.New("cache is full")

// entry 緩存條目
type entry[V any] struct {
	value       V
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Stats 緩存統計
type Stats struct {
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Memory 行程內 TTL 快取，滿載時淘汰最少使用的項目
type Memory[V any] struct {
	mu      sync.Mutex
	store   map[string]entry[V]
	maxSize int
	ttl     time.Duration
	stats   Stats
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemory 創建行程內快取；未啟用時回傳 nil
func NewMemory[V any](cfg config.LookupCacheConfig) *Memory[V] {
	if !cfg.Enabled {
		common.LogInfo("Lookup cache disabled")
		return nil
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	m := &Memory[V]{
		store:   make(map[string]entry[V]),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	// 啟動清理過期緩存的協程
	if cfg.CleanupInterval > 0 {
		go m.startCleanup(cfg.CleanupInterval)
	}

	common.LogInfo("查詢快取已初始化",
		zap.Int("max_size", cfg.MaxSize),
		zap.Duration("ttl", cfg.TTL),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
	return m
}

// Get 獲取緩存值
func (m *Memory[V]) Get(key string) (V, bool) {
	var zero V
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.store[key]
	if !ok {
		m.stats.Misses++
		return zero, false
	}

	now := m.now()
	if now.After(e.expiresAt) {
		delete(m.store, key)
		m.stats.Evictions++
		m.stats.Misses++
		return zero, false
	}

	// 更新訪問統計
	e.lastAccess = now
	e.accessCount++
	m.store[key] = e
	m.stats.Hits++
	return e.value, true
}

// Set 設置緩存值
func (m *Memory[V]) Set(key string, value V) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.maxSize {
		m.cleanup()
		if len(m.store) >= m.maxSize {
			m.evictLRU()
		}
		if len(m.store) >= m.maxSize {
			return ErrCacheFull
		}
	}

	now := m.now()
	m.store[key] = entry[V]{
		value:      value,
		expiresAt:  now.Add(m.ttl),
		lastAccess: now,
	}
	return nil
}

// Stats 獲取緩存統計信息
func (m *Memory[V]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Size = len(m.store)
	s.MaxSize = m.maxSize
	return s
}

// Close 停止清理並清空快取
func (m *Memory[V]) Close() {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]entry[V])
}

func (m *Memory[V]) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			count := m.cleanup()
			m.mu.Unlock()
			if count > 0 {
				common.LogDebug("Cleaned up expired cache entries", zap.Int("count", count))
			}
		}
	}
}

// cleanup 清理過期項目，呼叫者需持有鎖
func (m *Memory[V]) cleanup() int {
	now := m.now()
	count := 0
	for key, e := range m.store {
		if now.After(e.expiresAt) {
			delete(m.store, key)
			count++
		}
	}
	m.stats.Evictions += int64(count)
	return count
}

// evictLRU 淘汰訪問次數最少、最久未使用的項目
func (m *Memory[V]) evictLRU() {
	var (
		oldestKey    string
		oldestAccess time.Time
		lowestCount  int
	)
	for key, e := range m.store {
		if oldestKey == "" ||
			e.accessCount < lowestCount ||
			(e.accessCount == lowestCount && e.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = e.lastAccess
			lowestCount = e.accessCount
		}
	}
	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.Evictions++
	}
}
