package model

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedLoader 为任意 ArtifactLoader 增加进程级缓存：
// 同一 source 只解析一次，并发的首次调用合并为一次加载。
type CachedLoader struct {
	next  ArtifactLoader
	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]*Artifact
}

// NewCachedLoader 包装一个加载器。
func NewCachedLoader(next ArtifactLoader) *CachedLoader {
	return &CachedLoader{
		next:  next,
		cache: make(map[string]*Artifact),
	}
}

// Load 返回缓存的模型；未命中时加载并缓存。加载失败不缓存。
func (l *CachedLoader) Load(ctx context.Context, source string) (*Artifact, error) {
	l.mu.RLock()
	a, ok := l.cache[source]
	l.mu.RUnlock()
	if ok {
		return a, nil
	}

	v, err, _ := l.group.Do(source, func() (any, error) {
		l.mu.RLock()
		cached, ok := l.cache[source]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}
		loaded, err := l.next.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[source] = loaded
		l.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

// Invalidate 丢弃 source 的缓存，下次 Load 重新加载（用于热更新）。
func (l *CachedLoader) Invalidate(source string) {
	l.mu.Lock()
	delete(l.cache, source)
	l.mu.Unlock()
	l.group.Forget(source)
}
