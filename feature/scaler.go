package feature

import (
	"context"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/pipeline"
)

// StandardScaler Z-score 标准化（Standardization）
// 公式: z = (x - μ) / σ
// 特点: 纯线性、无截断，不做异常值处理
type StandardScaler struct {
	Features []string  // 数值特征名（按顺序）
	Mean     []float64 // 特征均值，与 Features 对齐
	Std      []float64 // 特征标准差，与 Features 对齐，均不为 0
}

// NewStandardScaler 创建标准化器
func NewStandardScaler(features []string, mean, std []float64) *StandardScaler {
	return &StandardScaler{
		Features: features,
		Mean:     mean,
		Std:      std,
	}
}

// Width 返回输出维度。
func (s *StandardScaler) Width() int { return len(s.Features) }

// TransformValue 标准化第 i 个特征的取值
func (s *StandardScaler) TransformValue(i int, value float64) float64 {
	return (value - s.Mean[i]) / s.Std[i]
}

// Transform 按特征顺序标准化记录中的数值特征
func (s *StandardScaler) Transform(record core.Record) ([]float64, error) {
	out := make([]float64, 0, len(s.Features))
	for i, feat := range s.Features {
		v, err := record.Float(feat)
		if err != nil {
			return nil, err
		}
		out = append(out, s.TransformValue(i, v))
	}
	return out, nil
}

func (s *StandardScaler) Name() string        { return "feature.standardize" }
func (s *StandardScaler) Kind() pipeline.Kind { return pipeline.KindNumerical }

// Process 标准化并追加到特征向量
func (s *StandardScaler) Process(_ context.Context, sample *core.Sample) error {
	values, err := s.Transform(sample.Record)
	if err != nil {
		return err
	}
	sample.Append(values...)
	return nil
}
