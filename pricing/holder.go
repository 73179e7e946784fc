package pricing

import (
	"context"
	"sync/atomic"

	"github.com/rushteam/carprice/core"
)

// Holder 持有当前生效的 Estimator，支持热更新时原子替换。
// 已开始的请求继续使用它拿到的那个 Estimator。
type Holder struct {
	cur atomic.Pointer[Estimator]
}

// NewHolder 创建 Holder，e 可以为 nil（尚未加载模型）。
func NewHolder(e *Estimator) *Holder {
	h := &Holder{}
	if e != nil {
		h.cur.Store(e)
	}
	return h
}

// Load 返回当前 Estimator，未加载时为 nil。
func (h *Holder) Load() *Estimator {
	return h.cur.Load()
}

// Swap 替换当前 Estimator，返回旧值。
func (h *Holder) Swap(e *Estimator) *Estimator {
	return h.cur.Swap(e)
}

// Current 返回当前 Estimator；未加载时返回 UNAVAILABLE。
func (h *Holder) Current() (*Estimator, error) {
	e := h.cur.Load()
	if e == nil {
		return nil, core.NewUnavailableError(core.ModuleService, "no model artifact loaded")
	}
	return e, nil
}

func (h *Holder) Predict(ctx context.Context, record core.Record) (*Result, error) {
	e, err := h.Current()
	if err != nil {
		return nil, err
	}
	return e.Predict(ctx, record)
}

func (h *Holder) Version() string {
	if e := h.cur.Load(); e != nil {
		return e.Version()
	}
	return ""
}

func (h *Holder) Generation() uint64 {
	if e := h.cur.Load(); e != nil {
		return e.Generation()
	}
	return 0
}

// ObserveCached 交给当前 Estimator 记录。
func (h *Holder) ObserveCached(record core.Record, res *Result) {
	if e := h.cur.Load(); e != nil {
		e.ObserveCached(record, res)
	}
}
