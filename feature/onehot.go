package feature

import (
	"context"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/pipeline"
)

// OneHotEncoder One-Hot 编码（drop-first）
// 每个类别特征展开为 K-1 维，下标 0 的类别作为参考类别被丢弃（由截距吸收）：
//   - 参考类别 -> K-1 个 0
//   - 第 j 个类别（j >= 1）-> 第 j-1 位为 1
//   - 未见过的取值 -> K-1 个 0（与参考类别相同，记录为 Fallback）
type OneHotEncoder struct {
	Features   []string     // 类别特征名（按顺序）
	Categories []Vocabulary // 每个特征的取值表，顺序与训练时一致
}

// NewOneHotEncoder 创建 drop-first One-Hot 编码器
func NewOneHotEncoder(features []string, categories []Vocabulary) *OneHotEncoder {
	return &OneHotEncoder{
		Features:   features,
		Categories: categories,
	}
}

// Width 返回输出维度 Σ(K_i - 1)。
func (e *OneHotEncoder) Width() int {
	n := 0
	for _, cats := range e.Categories {
		if len(cats) > 0 {
			n += len(cats) - 1
		}
	}
	return n
}

// EncodeValue 编码第 i 个特征的取值；known 为 false 表示取值不在取值表中。
func (e *OneHotEncoder) EncodeValue(i int, value string) (encoded []float64, known bool) {
	cats := e.Categories[i]
	if len(cats) == 0 {
		return nil, false
	}
	encoded = make([]float64, len(cats)-1)
	j := cats.Index(value)
	if j < 0 {
		return encoded, false
	}
	if j > 0 {
		encoded[j-1] = 1
	}
	return encoded, true
}

// Transform 按特征顺序编码记录中的类别特征，返回编码结果和回退的取值。
func (e *OneHotEncoder) Transform(record core.Record) ([]float64, []core.Fallback, error) {
	out := make([]float64, 0, e.Width())
	var fallbacks []core.Fallback
	for i, feat := range e.Features {
		value, err := record.Category(feat)
		if err != nil {
			return nil, nil, err
		}
		encoded, known := e.EncodeValue(i, value)
		if !known {
			fallbacks = append(fallbacks, core.Fallback{Field: feat, Value: value})
		}
		out = append(out, encoded...)
	}
	return out, fallbacks, nil
}

func (e *OneHotEncoder) Name() string        { return "feature.onehot" }
func (e *OneHotEncoder) Kind() pipeline.Kind { return pipeline.KindCategorical }

// Process 编码并追加到特征向量，回退的取值写入 Sample.Fallbacks。
func (e *OneHotEncoder) Process(_ context.Context, s *core.Sample) error {
	values, fallbacks, err := e.Transform(s.Record)
	if err != nil {
		return err
	}
	s.Append(values...)
	for _, fb := range fallbacks {
		s.AddFallback(fb.Field, fb.Value)
	}
	return nil
}
