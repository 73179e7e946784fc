package pricing

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/rushteam/carprice/core"
)

// WrapLRUCache 为 Predictor 增加进程内 LRU 缓存。size 或 ttl 不合法时原样返回。
// 缓存键包含 Estimator 的构建序号，热更新后旧结果不再命中（即使版本号相同）。
// next 实现 CacheObserver 时，命中缓存也会记录回退告警与特征统计。
func WrapLRUCache(p Predictor, size int, ttl time.Duration) Predictor {
	if p == nil || size <= 0 || ttl <= 0 {
		return p
	}
	return &lruPredictor{
		next:   p,
		cache:  expirable.NewLRU[string, *Result](size, nil, ttl),
		logger: zap.L(),
	}
}

type lruPredictor struct {
	next   Predictor
	cache  *expirable.LRU[string, *Result]
	logger *zap.Logger
}

func (l *lruPredictor) Predict(ctx context.Context, record core.Record) (*Result, error) {
	key, ok := buildCacheKey(l.next.Generation(), record)
	if !ok {
		return l.next.Predict(ctx, record)
	}
	if cached, ok := l.cache.Get(key); ok {
		l.logger.Debug("prediction cache hit (lru)", zap.String("model_version", cached.ModelVersion))
		res := cloneResult(cached)
		if o, ok := l.next.(CacheObserver); ok {
			o.ObserveCached(record, res)
		}
		return res, nil
	}
	res, err := l.next.Predict(ctx, record)
	if err != nil {
		return nil, err
	}
	l.cache.Add(key, cloneResult(res))
	return res, nil
}

func (l *lruPredictor) Version() string {
	return l.next.Version()
}

func (l *lruPredictor) Generation() uint64 {
	return l.next.Generation()
}

// buildCacheKey 使用 JSON 编码作为键：map 的键在编码时按字典序输出。
func buildCacheKey(generation uint64, record core.Record) (string, bool) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(generation, 10) + "|" + string(raw), true
}

func cloneResult(r *Result) *Result {
	if r == nil {
		return nil
	}
	out := *r
	if r.Fallbacks != nil {
		out.Fallbacks = append([]core.Fallback(nil), r.Fallbacks...)
	}
	if r.Contributions != nil {
		out.Contributions = append(out.Contributions[:0:0], r.Contributions...)
	}
	return &out
}
