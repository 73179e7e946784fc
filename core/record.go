package core

import (
	"sort"

	"github.com/rushteam/carprice/pkg/conv"
)

// Record 是一次估价请求的原始输入：字段名 -> 取值。
// 数值字段可以是任意数值类型（或数字字符串），类别字段为展示层标签。
type Record map[string]any

// Clone 返回浅拷贝；翻译等步骤只修改拷贝，原始记录保持不变。
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Float 读取数值字段。
// 字段不存在返回 MISSING_FEATURE，无法转为数字（含 bool）返回 INVALID_FEATURE_VALUE。
func (r Record) Float(field string) (float64, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, NewMissingFeatureError(field)
	}
	if _, isBool := v.(bool); isBool {
		return 0, NewInvalidFeatureValueError(field, v)
	}
	f, ok := conv.ToFloat64(v)
	if !ok {
		return 0, NewInvalidFeatureValueError(field, v)
	}
	return f, nil
}

// Category 读取类别字段并转为规范字符串形式（5、5.0 与 "5.0" 都得到 "5"）。
func (r Record) Category(field string) (string, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", NewMissingFeatureError(field)
	}
	return conv.CanonicalString(v), nil
}

// Keys 返回排序后的字段名。
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fallback 记录一次“未见过的类别”回退：该取值被编码为参考类别（全 0）。
type Fallback struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Sample 承载一次编码过程的状态，贯穿整个 Pipeline 透传。
type Sample struct {
	// Record 是翻译后的记录拷贝
	Record Record

	// Vector 是逐步拼接的特征向量，顺序与模型系数一致
	Vector []float64

	// Fallbacks 记录落入参考类别编码的未知类别取值。
	// 这类取值与真正的参考类别无法区分，调用方应当记录/告警。
	Fallbacks []Fallback
}

// NewSample 以记录的拷贝创建 Sample。
func NewSample(record Record, capacity int) *Sample {
	return &Sample{
		Record: record.Clone(),
		Vector: make([]float64, 0, capacity),
	}
}

// Append 追加编码结果。
func (s *Sample) Append(values ...float64) {
	s.Vector = append(s.Vector, values...)
}

// AddFallback 记录一次未知类别回退。
func (s *Sample) AddFallback(field, value string) {
	s.Fallbacks = append(s.Fallbacks, Fallback{Field: field, Value: value})
}
