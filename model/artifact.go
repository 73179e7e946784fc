package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/feature"
)

// Format 是模型文件的序列化格式。
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath 根据文件扩展名推断格式，.yaml/.yml 为 YAML，其余按 JSON 处理。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// sniffFormat 在无法从来源推断格式时，按内容首字符判断。
func sniffFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Vocabulary 是一个类别特征的取值表，定义见 feature.Vocabulary。
type Vocabulary = feature.Vocabulary

// Artifact 是训练侧导出的线性回归模型参数。
// 加载后不可变，可被任意多个并发请求共享。
type Artifact struct {
	// NumericalFeatures 数值特征名（按顺序）
	NumericalFeatures []string `json:"numerical_features" yaml:"numerical_features"`
	// ScalerMean/ScalerStd 与 NumericalFeatures 按下标对齐的标准化参数
	ScalerMean []float64 `json:"scaler_mean" yaml:"scaler_mean"`
	ScalerStd  []float64 `json:"scaler_std" yaml:"scaler_std"`

	// CategoricalFeatures 类别特征名（按顺序）
	CategoricalFeatures []string `json:"categorical_features" yaml:"categorical_features"`
	// EncoderCategories 与 CategoricalFeatures 对齐的取值表
	EncoderCategories []Vocabulary `json:"encoder_categories" yaml:"encoder_categories"`

	// FinalFeatureOrder 展平后的特征名，仅用于展示
	FinalFeatureOrder []string `json:"final_feature_order" yaml:"final_feature_order"`

	// RidgeCoefficients 与特征向量按下标对齐的系数
	RidgeCoefficients []float64 `json:"ridge_coefficients" yaml:"ridge_coefficients"`
	// RidgeIntercept 截距
	RidgeIntercept float64 `json:"ridge_intercept" yaml:"ridge_intercept"`

	// ModelVersion 模型版本（可选）
	ModelVersion string `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	// CreatedAt 导出时间（可选）
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// DecodeArtifact 反序列化模型文件。format 为空时按内容推断。
// 只做解析，不做校验；需要校验时调用 Validate。
func DecodeArtifact(data []byte, format Format) (*Artifact, error) {
	if format == "" {
		format = sniffFormat(data)
	}
	var a Artifact
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse yaml artifact: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parse json artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}
	return &a, nil
}

// Encode 序列化模型文件（用于发布到共享存储）。
func (a *Artifact) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(a)
	case FormatJSON, "":
		return json.MarshalIndent(a, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}
}

// FeatureVectorLen 返回编码后特征向量的长度：Nn + Σ(|V_i| - 1)。
func (a *Artifact) FeatureVectorLen() int {
	n := len(a.NumericalFeatures)
	for _, vocab := range a.EncoderCategories {
		if len(vocab) > 0 {
			n += len(vocab) - 1
		}
	}
	return n
}

// FeatureNames 返回特征向量各位置的名称。
// 优先使用 FinalFeatureOrder；长度不符时按 “特征名_取值” 生成。
func (a *Artifact) FeatureNames() []string {
	n := a.FeatureVectorLen()
	if len(a.FinalFeatureOrder) == n {
		return append([]string(nil), a.FinalFeatureOrder...)
	}
	names := make([]string, 0, n)
	names = append(names, a.NumericalFeatures...)
	for i, vocab := range a.EncoderCategories {
		feat := ""
		if i < len(a.CategoricalFeatures) {
			feat = a.CategoricalFeatures[i]
		}
		for j := 1; j < len(vocab); j++ {
			names = append(names, feat+"_"+vocab[j])
		}
	}
	return names
}

// Version 返回模型版本，未设置时为 "unversioned"。
func (a *Artifact) Version() string {
	if a.ModelVersion == "" {
		return "unversioned"
	}
	return a.ModelVersion
}

// Validate 校验模型文件的全部约束。
func (a *Artifact) Validate() error {
	nn := len(a.NumericalFeatures)
	if len(a.ScalerMean) != nn {
		return core.NewInvalidArtifactError("scaler_mean", "scaler_mean has %d entries, expected %d", len(a.ScalerMean), nn)
	}
	if len(a.ScalerStd) != nn {
		return core.NewInvalidArtifactError("scaler_std", "scaler_std has %d entries, expected %d", len(a.ScalerStd), nn)
	}
	for i, std := range a.ScalerStd {
		if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
			return core.NewInvalidArtifactError("scaler_std", "scaler_std[%d] for %q must be a non-zero finite number", i, a.NumericalFeatures[i])
		}
		if math.IsNaN(a.ScalerMean[i]) || math.IsInf(a.ScalerMean[i], 0) {
			return core.NewInvalidArtifactError("scaler_mean", "scaler_mean[%d] for %q must be finite", i, a.NumericalFeatures[i])
		}
	}

	if len(a.EncoderCategories) != len(a.CategoricalFeatures) {
		return core.NewInvalidArtifactError("encoder_categories", "encoder_categories has %d vocabularies, expected %d", len(a.EncoderCategories), len(a.CategoricalFeatures))
	}
	for i, vocab := range a.EncoderCategories {
		feat := a.CategoricalFeatures[i]
		if len(vocab) == 0 {
			return core.NewInvalidArtifactError("encoder_categories", "vocabulary of %q is empty", feat)
		}
		seen := make(map[string]struct{}, len(vocab))
		for _, c := range vocab {
			if _, dup := seen[c]; dup {
				return core.NewInvalidArtifactError("encoder_categories", "vocabulary of %q repeats %q", feat, c)
			}
			seen[c] = struct{}{}
		}
	}

	names := make(map[string]struct{}, nn+len(a.CategoricalFeatures))
	for _, name := range append(append([]string(nil), a.NumericalFeatures...), a.CategoricalFeatures...) {
		if name == "" {
			return core.NewInvalidArtifactError("features", "empty feature name")
		}
		if _, dup := names[name]; dup {
			return core.NewInvalidArtifactError("features", "feature %q declared twice", name)
		}
		names[name] = struct{}{}
	}

	want := a.FeatureVectorLen()
	if len(a.RidgeCoefficients) != want {
		return core.NewInvalidArtifactError("ridge_coefficients", "ridge_coefficients has %d entries, encoder produces %d features", len(a.RidgeCoefficients), want)
	}
	if len(a.FinalFeatureOrder) != 0 && len(a.FinalFeatureOrder) != want {
		return core.NewInvalidArtifactError("final_feature_order", "final_feature_order has %d entries, expected %d", len(a.FinalFeatureOrder), want)
	}
	for i, c := range a.RidgeCoefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return core.NewInvalidArtifactError("ridge_coefficients", "ridge_coefficients[%d] is not finite", i)
		}
	}
	if math.IsNaN(a.RidgeIntercept) || math.IsInf(a.RidgeIntercept, 0) {
		return core.NewInvalidArtifactError("ridge_intercept", "ridge_intercept is not finite")
	}
	return nil
}
