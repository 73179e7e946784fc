package pipeline

import (
	"context"

	"github.com/rushteam/carprice/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindTranslate   Kind = "translate"   // 翻译阶段：展示层标签 -> 训练时标签
	KindNumerical   Kind = "numerical"   // 数值阶段：标准化并追加到特征向量
	KindCategorical Kind = "categorical" // 类别阶段：drop-first one-hot 并追加到特征向量
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“读写同一个 Sample”的形态：翻译节点改写记录拷贝，编码节点向特征向量追加。
type Node interface {
	Name() string
	Kind() Kind

	Process(ctx context.Context, s *core.Sample) error
}
