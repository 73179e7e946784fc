package pricing

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/feature"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pipeline"
)

// Result 是一次估价的结果。
type Result struct {
	Price         float64              `json:"price"`
	ModelVersion  string               `json:"model_version"`
	Fallbacks     []core.Fallback      `json:"fallbacks,omitempty"`
	Contributions []model.Contribution `json:"contributions,omitempty"`
}

// Predictor 是估价能力的抽象，Estimator、Holder 与缓存包装都实现它。
type Predictor interface {
	Predict(ctx context.Context, record core.Record) (*Result, error)
	Version() string
	// Generation 标识当前生效的 Estimator 实例。每次构建都不同，与模型版本号无关。
	Generation() uint64
}

// CacheObserver 由需要感知缓存命中的 Predictor 实现。
// 命中缓存时不会重新编码，回退告警与特征统计由 ObserveCached 补记。
type CacheObserver interface {
	ObserveCached(record core.Record, res *Result)
}

// DefaultBatchConcurrency 是批量估价的默认并发上限。
const DefaultBatchConcurrency = 8

var generationSeq atomic.Uint64

// Estimator 由一个模型文件预先构建好编码 Pipeline 与线性模型。
// 构建后不可变，可被任意多个 goroutine 并发使用。
type Estimator struct {
	artifact   *model.Artifact
	pipeline   *pipeline.Pipeline
	model      model.RegressionModel
	generation uint64

	translator       *feature.Translator
	monitor          *feature.Monitor
	logger           *zap.Logger
	batchConcurrency int
}

// Option 配置 Estimator。
type Option func(*Estimator)

// WithTranslator 替换默认的俄语标签翻译器。
func WithTranslator(t *feature.Translator) Option {
	return func(e *Estimator) { e.translator = t }
}

// WithMonitor 记录线上输入的特征统计，可在多次热更新间共享。
func WithMonitor(m *feature.Monitor) Option {
	return func(e *Estimator) { e.monitor = m }
}

// WithLogger 设置日志。
func WithLogger(l *zap.Logger) Option {
	return func(e *Estimator) { e.logger = l }
}

// WithBatchConcurrency 设置批量估价的最大并发数，<= 0 表示不限制。
func WithBatchConcurrency(n int) Option {
	return func(e *Estimator) { e.batchConcurrency = n }
}

// NewEstimator 按模型文件构建 Estimator。
// 只检查编码器参数的形状；系数个数不一致留到预测时以 FEATURE_VECTOR_LENGTH_MISMATCH 报告。
func NewEstimator(a *model.Artifact, opts ...Option) (*Estimator, error) {
	if a == nil {
		return nil, core.NewInvalidArtifactError("", "artifact is nil")
	}
	if len(a.ScalerMean) != len(a.NumericalFeatures) || len(a.ScalerStd) != len(a.NumericalFeatures) {
		return nil, core.NewInvalidArtifactError("scaler_mean",
			"scaler parameters (%d mean, %d std) do not match %d numerical features",
			len(a.ScalerMean), len(a.ScalerStd), len(a.NumericalFeatures))
	}
	if len(a.EncoderCategories) != len(a.CategoricalFeatures) {
		return nil, core.NewInvalidArtifactError("encoder_categories",
			"encoder_categories has %d vocabularies, expected %d",
			len(a.EncoderCategories), len(a.CategoricalFeatures))
	}

	e := &Estimator{
		artifact:         a,
		model:            model.NewLinearModel(a),
		generation:       generationSeq.Add(1),
		translator:       feature.DefaultTranslator(),
		logger:           zap.L(),
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.pipeline = &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			e.translator,
			feature.NewStandardScaler(a.NumericalFeatures, a.ScalerMean, a.ScalerStd),
			feature.NewOneHotEncoder(a.CategoricalFeatures, a.EncoderCategories),
		},
		Width: a.FeatureVectorLen(),
	}
	return e, nil
}

// Artifact 返回构建所用的模型文件（只读）。
func (e *Estimator) Artifact() *model.Artifact { return e.artifact }

// Version 返回模型版本。
func (e *Estimator) Version() string { return e.artifact.Version() }

// Generation 返回本实例的构建序号。
func (e *Estimator) Generation() uint64 { return e.generation }

// Encode 把原始记录编码为特征向量，返回完整的 Sample（含回退信息）。
func (e *Estimator) Encode(ctx context.Context, record core.Record) (*core.Sample, error) {
	s, err := e.pipeline.Run(ctx, record)
	if e.monitor != nil {
		if err != nil {
			e.monitor.RecordError(err)
		} else {
			e.monitor.Observe(e.artifact.NumericalFeatures, e.artifact.CategoricalFeatures, s)
		}
	}
	return s, err
}

// Predict 对单条记录估价。
func (e *Estimator) Predict(ctx context.Context, record core.Record) (*Result, error) {
	s, err := e.Encode(ctx, record)
	if err != nil {
		return nil, err
	}
	price, err := e.model.Predict(s.Vector)
	if err != nil {
		return nil, err
	}
	e.reportFallbacks(s)
	return &Result{
		Price:        price,
		ModelVersion: e.Version(),
		Fallbacks:    s.Fallbacks,
	}, nil
}

// Explain 估价并返回每个特征的贡献 coef*x。
func (e *Estimator) Explain(ctx context.Context, record core.Record) (*Result, error) {
	s, err := e.Encode(ctx, record)
	if err != nil {
		return nil, err
	}
	explainer, ok := e.model.(model.Explainer)
	if !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: %s does not support explain", e.model.Name()))
	}
	contributions, err := explainer.Contributions(s.Vector)
	if err != nil {
		return nil, err
	}
	price, err := e.model.Predict(s.Vector)
	if err != nil {
		return nil, err
	}
	e.reportFallbacks(s)
	return &Result{
		Price:         price,
		ModelVersion:  e.Version(),
		Fallbacks:     s.Fallbacks,
		Contributions: contributions,
	}, nil
}

// BatchResult 是批量估价中单条记录的结果，Result 与 Err 二选一。
type BatchResult struct {
	Result *Result
	Err    error
}

// PredictBatch 并发估价，结果顺序与输入一致。单条失败不影响其他记录。
func (e *Estimator) PredictBatch(ctx context.Context, records []core.Record) []BatchResult {
	return PredictBatch(ctx, e, records, e.batchConcurrency)
}

// PredictBatch 用任意 Predictor 并发估价，limit <= 0 表示不限制并发。
func PredictBatch(ctx context.Context, p Predictor, records []core.Record, limit int) []BatchResult {
	out := make([]BatchResult, len(records))
	eg, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, record := range records {
		i, record := i, record
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i] = BatchResult{Err: err}
				return nil
			}
			r, err := p.Predict(gctx, record)
			out[i] = BatchResult{Result: r, Err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// ObserveCached 为缓存命中的结果记录特征统计与回退告警，与一次真实估价的记录效果相同。
func (e *Estimator) ObserveCached(record core.Record, res *Result) {
	if res == nil {
		return
	}
	s := &core.Sample{Record: record, Fallbacks: res.Fallbacks}
	if e.monitor != nil {
		e.monitor.Observe(e.artifact.NumericalFeatures, e.artifact.CategoricalFeatures, s)
	}
	e.reportFallbacks(s)
}

// reportFallbacks 记录落入参考类别的未知取值：这类预测与参考类别无法区分。
func (e *Estimator) reportFallbacks(s *core.Sample) {
	for _, fb := range s.Fallbacks {
		e.logger.Warn("unseen category encoded as reference",
			zap.String("field", fb.Field),
			zap.String("value", fb.Value),
			zap.String("model_version", e.Version()),
		)
	}
}

// Predict 用给定模型文件对单条记录估价。
// 每次调用都会构建编码器；高频场景应复用 Estimator。
func Predict(ctx context.Context, a *model.Artifact, record core.Record) (float64, error) {
	e, err := NewEstimator(a)
	if err != nil {
		return 0, err
	}
	r, err := e.Predict(ctx, record)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return r.Price, nil
}
