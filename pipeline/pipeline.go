package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/carprice/core"
)

// Pipeline 把编码逻辑拆成可组合的 Node 链：Translate → Numerical → Categorical。
// Pipeline 本身无状态，可被并发调用。
type Pipeline struct {
	Nodes []Node

	// Width 是期望的特征向量长度，仅用于预分配
	Width int
}

// Run 在记录的拷贝上依次执行各节点，返回编码结果。任一节点失败即中止。
func (p *Pipeline) Run(ctx context.Context, record core.Record) (*core.Sample, error) {
	s := core.NewSample(record, p.Width)
	for _, node := range p.Nodes {
		if err := node.Process(ctx, s); err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
	}
	return s, nil
}
