// Package carprice 是二手车价格估算服务。
//
// 设计要点：
// - 模型即数据：训练侧导出的 Ridge 参数（标准化、one-hot 取值表、系数）在运行时加载，不在代码中硬编码
// - Pipeline-first: 编码逻辑通过 Node 串联（Translate → Numerical → Categorical），结果拼接为特征向量
// - 回退可观测：未见过的类别按参考类别编码，并记录在 Sample.Fallbacks 中
package carprice

import (
	"context"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pipeline"
	"github.com/rushteam/carprice/pricing"
)

// 轻量 facade：便于用户直接 import "carprice" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Record = core.Record
type Artifact = model.Artifact
type Estimator = pricing.Estimator

const (
	KindTranslate   = pipeline.KindTranslate
	KindNumerical   = pipeline.KindNumerical
	KindCategorical = pipeline.KindCategorical
)

// LoadArtifact 从本地文件加载并校验模型文件。
func LoadArtifact(path string) (*Artifact, error) {
	return model.LoadArtifact(path)
}

// Predict 用给定模型文件对单条记录估价。
func Predict(ctx context.Context, a *Artifact, record Record) (float64, error) {
	return pricing.Predict(ctx, a, record)
}
