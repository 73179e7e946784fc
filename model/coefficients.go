package model

import (
	"math"
	"sort"
)

// Coefficient 是一个带名称的模型系数。
type Coefficient struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Abs     float64 `json:"abs"`
}

// TopCoefficients 按绝对值降序返回前 n 个系数；n <= 0 返回全部。
// 绝对值相同时保持特征向量中的原始顺序。
func TopCoefficients(a *Artifact, n int) []Coefficient {
	names := a.FeatureNames()
	out := make([]Coefficient, len(a.RidgeCoefficients))
	for i, c := range a.RidgeCoefficients {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		out[i] = Coefficient{Feature: name, Value: c, Abs: math.Abs(c)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Abs > out[j].Abs
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Summary 是模型概要信息。
type Summary struct {
	Version          string  `json:"version"`
	Intercept        float64 `json:"intercept"`
	CoefficientCount int     `json:"coefficient_count"`
	NumericalCount   int     `json:"numerical_count"`
	CategoricalCount int     `json:"categorical_count"`
}

// Summarize 返回模型概要。
func Summarize(a *Artifact) Summary {
	return Summary{
		Version:          a.Version(),
		Intercept:        a.RidgeIntercept,
		CoefficientCount: len(a.RidgeCoefficients),
		NumericalCount:   len(a.NumericalFeatures),
		CategoricalCount: len(a.CategoricalFeatures),
	}
}
