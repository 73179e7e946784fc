package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/carprice/feature"
	"github.com/rushteam/carprice/pkg/dsl"
	"github.com/rushteam/carprice/pricing"
)

// Deps 是构建 HTTP 服务所需的依赖。
type Deps struct {
	Holder *pricing.Holder
	// Predictor 默认为 Holder；可传入带缓存的包装
	Predictor        pricing.Predictor
	Journal          Journal
	Monitor          *feature.Monitor
	Rules            *dsl.RuleSet
	Locale           string
	BatchLimit       int
	BatchConcurrency int // 默认为 pricing.DefaultBatchConcurrency
	Timeout          time.Duration
	Logger           *zap.Logger
}

// NewHandler 根据依赖创建 Handler。
func NewHandler(d Deps) *Handler {
	h := &Handler{
		holder:     d.Holder,
		predictor:  d.Predictor,
		journal:    d.Journal,
		monitor:    d.Monitor,
		rules:      d.Rules,
		locale:     d.Locale,
		batchLimit: d.BatchLimit,
		logger:     d.Logger,

		batchConcurrency: d.BatchConcurrency,
	}
	if h.predictor == nil {
		h.predictor = d.Holder
	}
	if h.logger == nil {
		h.logger = zap.L()
	}
	if h.batchConcurrency <= 0 {
		h.batchConcurrency = pricing.DefaultBatchConcurrency
	}
	return h
}

// RegisterRoutes 在 group 下注册估价 API。
func RegisterRoutes(group *gin.RouterGroup, h *Handler) {
	group.GET("/health", h.Health)
	group.GET("/options", h.Options)
	group.GET("/model", h.Model)
	group.POST("/predict", h.Predict)
	group.POST("/predict/batch", h.PredictBatch)
	group.GET("/predictions", h.Predictions)
	group.GET("/stats", h.Stats)
}

// NewEngine 创建挂载了中间件与 /api 路由的 gin 引擎。
func NewEngine(d Deps) *gin.Engine {
	h := NewHandler(d)
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog(h.logger), Timeout(d.Timeout))
	RegisterRoutes(engine.Group("/api"), h)
	return engine
}
