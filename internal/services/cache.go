package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vehicast/service/internal/models"
)

// =============================================================================
// TTL缓存
// =============================================================================

// Clock 时间源，供测试注入
type Clock func() time.Time

// CacheItem 缓存条目
type CacheItem struct {
	Data      interface{}
	CreatedAt time.Time
}

// TTLCache 带过期时间与软容量的并发安全缓存
// 条目在写入后ttl内有效；容量为软限制，仅在超容时清扫过期条目，
// 不做LRU淘汰，未过期条目即使超容也保留
type TTLCache struct {
	name    string
	ttl     time.Duration
	softCap int
	now     Clock

	mutex sync.RWMutex
	cache map[string]*CacheItem
}

// NewTTLCache 创建TTL缓存，name用于日志标识
func NewTTLCache(name string, ttl time.Duration, softCap int) *TTLCache {
	return &TTLCache{
		name:    name,
		ttl:     ttl,
		softCap: softCap,
		now:     time.Now,
		cache:   make(map[string]*CacheItem),
	}
}

// WithClock 替换时间源，供测试使用
func (c *TTLCache) WithClock(now Clock) *TTLCache {
	c.now = now
	return c
}

// Get 读取缓存，过期条目视为未命中并删除
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	item, exists := c.cache[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().Sub(item.CreatedAt) >= c.ttl {
		c.mutex.Lock()
		// 二次检查，条目可能已被并发更新
		if current, ok := c.cache[key]; ok && c.now().Sub(current.CreatedAt) >= c.ttl {
			delete(c.cache, key)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return item.Data, true
}

// Set 写入缓存并刷新创建时间，超容时清扫过期条目
func (c *TTLCache) Set(key string, data interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &CacheItem{
		Data:      data,
		CreatedAt: c.now(),
	}

	if len(c.cache) > c.softCap {
		removed := c.sweepLocked()
		if removed > 0 {
			log.Printf("[%s] 超容清扫过期条目%d个，剩余%d个", c.name, removed, len(c.cache))
		}
	}
}

// Sweep 清扫全部过期条目，返回清扫数量
func (c *TTLCache) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.sweepLocked()
}

func (c *TTLCache) sweepLocked() int {
	now := c.now()
	removed := 0
	for key, item := range c.cache {
		if now.Sub(item.CreatedAt) >= c.ttl {
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}

// Size 当前条目数
func (c *TTLCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// =============================================================================
// 嵌入缓存
// =============================================================================

// NormalizeText 归一化文本作为缓存键：换行转空格、小写、压缩空白
func NormalizeText(text string) string {
	normalized := strings.ReplaceAll(text, "\n", " ")
	normalized = strings.ToLower(normalized)
	return strings.Join(strings.Fields(normalized), " ")
}

// EmbeddingCache 嵌入向量缓存
// 语义相同（归一化后相同）的文本共享同一条嵌入，避免重复调用嵌入服务
type EmbeddingCache struct {
	provider EmbeddingProvider
	cache    *TTLCache
}

// NewEmbeddingCache 创建嵌入缓存
func NewEmbeddingCache(provider EmbeddingProvider, ttl time.Duration, softCap int) *EmbeddingCache {
	return &EmbeddingCache{
		provider: provider,
		cache:    NewTTLCache("嵌入缓存", ttl, softCap),
	}
}

// WithClock 替换时间源，供测试使用
func (c *EmbeddingCache) WithClock(now Clock) *EmbeddingCache {
	c.cache.WithClock(now)
	return c
}

// GetOrCompute 命中返回缓存的嵌入，未命中调用嵌入服务并写入缓存
// 嵌入失败不写缓存，恢复后的下次调用重新计算
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	key := NormalizeText(text)

	if cached, ok := c.cache.Get(key); ok {
		return cached.([]float32), nil
	}

	embedding, err := c.provider.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, embedding)
	return embedding, nil
}

// Size 当前缓存条目数
func (c *EmbeddingCache) Size() int {
	return c.cache.Size()
}

// =============================================================================
// 上下文缓存
// =============================================================================

// TagKey 标签组合的缓存键，排序后连接保证顺序无关
func TagKey(types []models.QueryType) string {
	tags := make([]string, len(types))
	for i, t := range types {
		tags[i] = string(t)
	}
	sort.Strings(tags)
	return strings.Join(tags, "+")
}

// ContextCache 组装后上下文的缓存，按标签组合索引
type ContextCache struct {
	cache *TTLCache
}

// NewContextCache 创建上下文缓存
func NewContextCache(ttl time.Duration, softCap int) *ContextCache {
	return &ContextCache{
		cache: NewTTLCache("上下文缓存", ttl, softCap),
	}
}

// WithClock 替换时间源，供测试使用
func (c *ContextCache) WithClock(now Clock) *ContextCache {
	c.cache.WithClock(now)
	return c
}

// Get 按标签组合读取缓存的上下文
func (c *ContextCache) Get(types []models.QueryType) (string, bool) {
	if cached, ok := c.cache.Get(TagKey(types)); ok {
		return cached.(string), true
	}
	return "", false
}

// Set 按标签组合缓存组装后的上下文
func (c *ContextCache) Set(types []models.QueryType, assembled string) {
	c.cache.Set(TagKey(types), assembled)
}
