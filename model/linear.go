package model

import (
	"github.com/rushteam/carprice/core"
)

// LinearModel 实现了线性回归（Ridge）的预测部分。
//
// 预测原理：
//
//	price = Intercept + sum(Coefficient_i * Feature_i)
//
// 与 LR 不同，这里没有 Sigmoid 变换，输出即为价格。
type LinearModel struct {
	Intercept    float64   // 截距 (Bias / Intercept)
	Coefficients []float64 // 系数，与特征向量按下标对齐
	FeatureNames []string  // 各位置的特征名，仅用于解释
}

var (
	_ RegressionModel = (*LinearModel)(nil)
	_ Explainer       = (*LinearModel)(nil)
)

// NewLinearModel 从模型文件构建线性模型。系数切片与模型文件共享，不得修改。
func NewLinearModel(a *Artifact) *LinearModel {
	return &LinearModel{
		Intercept:    a.RidgeIntercept,
		Coefficients: a.RidgeCoefficients,
		FeatureNames: a.FeatureNames(),
	}
}

func (m *LinearModel) Name() string { return "ridge" }

// Predict 计算 intercept + Σ coef[i]*x[i]。
// 长度不一致意味着模型文件与编码器版本不匹配，返回 FEATURE_VECTOR_LENGTH_MISMATCH。
func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, core.NewFeatureVectorLengthMismatchError(len(features), len(m.Coefficients))
	}
	score := m.Intercept
	for i, c := range m.Coefficients {
		score += c * features[i]
	}
	return score, nil
}

// Contribution 是单个特征对预测值的贡献 coef*x。
type Contribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Coefficient  float64 `json:"coefficient"`
	Contribution float64 `json:"contribution"`
}

// Contributions 返回每个特征的贡献，顺序与特征向量一致。
func (m *LinearModel) Contributions(features []float64) ([]Contribution, error) {
	if len(features) != len(m.Coefficients) {
		return nil, core.NewFeatureVectorLengthMismatchError(len(features), len(m.Coefficients))
	}
	out := make([]Contribution, len(features))
	for i, x := range features {
		name := ""
		if i < len(m.FeatureNames) {
			name = m.FeatureNames[i]
		}
		out[i] = Contribution{
			Feature:      name,
			Value:        x,
			Coefficient:  m.Coefficients[i],
			Contribution: m.Coefficients[i] * x,
		}
	}
	return out, nil
}
