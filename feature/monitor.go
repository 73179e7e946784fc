package feature

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/carprice/core"
)

// FeatureStats 是单个特征的线上使用统计。
type FeatureStats struct {
	FeatureName   string    `json:"feature"`
	UsageCount    int64     `json:"usage_count"`
	MissingCount  int64     `json:"missing_count"`
	ErrorCount    int64     `json:"error_count"`    // 取值非法或标签无法翻译
	FallbackCount int64     `json:"fallback_count"` // 未见过的类别取值
	Mean          float64   `json:"mean,omitempty"`
	Std           float64   `json:"std,omitempty"`
	Min           float64   `json:"min,omitempty"`
	Max           float64   `json:"max,omitempty"`
	LastUpdate    time.Time `json:"last_update"`

	m2 float64 // Welford 累计平方差
}

// Monitor 是内存特征监控，用于观察线上输入的分布、缺失率与回退率，
// 便于发现与训练数据的偏移。可被并发使用。
type Monitor struct {
	mu    sync.Mutex
	stats map[string]*FeatureStats
	now   func() time.Time
}

// NewMonitor 创建内存特征监控
func NewMonitor() *Monitor {
	return &Monitor{
		stats: make(map[string]*FeatureStats),
		now:   time.Now,
	}
}

func (m *Monitor) entry(feature string) *FeatureStats {
	s := m.stats[feature]
	if s == nil {
		s = &FeatureStats{FeatureName: feature}
		m.stats[feature] = s
	}
	s.LastUpdate = m.now()
	return s
}

// RecordValue 记录一次数值特征取值（在线更新均值与标准差）。
func (m *Monitor) RecordValue(feature string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.entry(feature)
	s.UsageCount++
	if s.UsageCount == 1 {
		s.Min, s.Max = value, value
	} else {
		s.Min = math.Min(s.Min, value)
		s.Max = math.Max(s.Max, value)
	}
	delta := value - s.Mean
	s.Mean += delta / float64(s.UsageCount)
	s.m2 += delta * (value - s.Mean)
	if s.UsageCount > 1 {
		s.Std = math.Sqrt(s.m2 / float64(s.UsageCount-1))
	}
}

// RecordCategory 记录一次类别特征使用。
func (m *Monitor) RecordCategory(feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(feature).UsageCount++
}

// RecordFallback 记录一次未知类别回退。
func (m *Monitor) RecordFallback(feature string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(feature).FallbackCount++
}

// RecordError 按错误类型记录编码失败；非字段级错误忽略。
func (m *Monitor) RecordError(err error) {
	de := core.GetDomainError(err)
	if de == nil || de.Field == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.entry(de.Field)
	if errors.Is(err, core.ErrMissingFeature) {
		s.MissingCount++
	} else {
		s.ErrorCount++
	}
}

// Observe 记录一次成功编码的记录：数值特征的取值、类别特征的使用与回退。
func (m *Monitor) Observe(numerical, categorical []string, s *core.Sample) {
	for _, feat := range numerical {
		if v, err := s.Record.Float(feat); err == nil {
			m.RecordValue(feat, v)
		}
	}
	for _, feat := range categorical {
		m.RecordCategory(feat)
	}
	for _, fb := range s.Fallbacks {
		m.RecordFallback(fb.Field)
	}
}

// Get 返回单个特征的统计副本。
func (m *Monitor) Get(feature string) (FeatureStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[feature]
	if !ok {
		return FeatureStats{}, false
	}
	return *s, true
}

// Snapshot 返回全部特征的统计副本，按特征名排序。
func (m *Monitor) Snapshot() []FeatureStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FeatureStats, 0, len(m.stats))
	for _, s := range m.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeatureName < out[j].FeatureName })
	return out
}
