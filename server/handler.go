package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/feature"
	"github.com/rushteam/carprice/history"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pkg/dsl"
	"github.com/rushteam/carprice/pkg/format"
	"github.com/rushteam/carprice/pricing"
)

// Journal 是估价日志的抽象，nil 表示未开启。
type Journal interface {
	Record(ctx context.Context, e *history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Handler 实现估价 API。
type Handler struct {
	holder     *pricing.Holder
	predictor  pricing.Predictor
	journal    Journal
	monitor    *feature.Monitor
	rules      *dsl.RuleSet
	locale     string
	batchLimit int
	logger     *zap.Logger

	batchConcurrency int
}

type priceResponse struct {
	Price         float64              `json:"price"`
	Formatted     string               `json:"formatted"`
	ModelVersion  string               `json:"model_version"`
	Fallbacks     []core.Fallback      `json:"fallbacks,omitempty"`
	Contributions []model.Contribution `json:"contributions,omitempty"`
}

type batchRequest struct {
	Records []core.Record `json:"records"`
}

type batchItem struct {
	*priceResponse
	Error *APIError `json:"error,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	if h.holder.Load() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model_version": h.holder.Version()})
}

func (h *Handler) Options(c *gin.Context) {
	success(c, feature.DefaultOptions())
}

func (h *Handler) Model(c *gin.Context) {
	top, err := strconv.Atoi(c.DefaultQuery("top", "30"))
	if err != nil || top < 0 {
		fail(c, http.StatusBadRequest, "invalid_input", "top must be a non-negative integer")
		return
	}
	e, err := h.holder.Current()
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	a := e.Artifact()
	success(c, gin.H{
		"summary":      model.Summarize(a),
		"coefficients": model.TopCoefficients(a, top),
	})
}

func (h *Handler) Predict(c *gin.Context) {
	var record core.Record
	if err := decodeJSON(c.Request.Body, &record); err != nil || record == nil {
		fail(c, http.StatusBadRequest, "invalid_json", "request body must be a JSON object")
		return
	}
	if err := h.rules.Validate(record); err != nil {
		handleError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	var (
		res *pricing.Result
		err error
	)
	if explain, _ := strconv.ParseBool(c.Query("explain")); explain {
		var e *pricing.Estimator
		if e, err = h.holder.Current(); err == nil {
			res, err = e.Explain(ctx, record)
		}
	} else {
		res, err = h.predictor.Predict(ctx, record)
	}
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	h.journalRecord(ctx, record, res)
	success(c, h.toResponse(res))
}

func (h *Handler) PredictBatch(c *gin.Context) {
	var req batchRequest
	if err := decodeJSON(c.Request.Body, &req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_json", "request body must be {\"records\": [...]}")
		return
	}
	if len(req.Records) == 0 {
		fail(c, http.StatusBadRequest, "invalid_input", "records must not be empty")
		return
	}
	if h.batchLimit > 0 && len(req.Records) > h.batchLimit {
		fail(c, http.StatusBadRequest, "invalid_input", fmt.Sprintf("at most %d records per batch", h.batchLimit))
		return
	}

	ctx := c.Request.Context()
	results := pricing.PredictBatch(ctx, &validatingPredictor{next: h.predictor, rules: h.rules}, req.Records, h.batchConcurrency)
	items := make([]batchItem, len(results))
	for i, r := range results {
		if r.Err != nil {
			_, apiErr := toAPIError(r.Err)
			items[i] = batchItem{Error: &apiErr}
			continue
		}
		h.journalRecord(ctx, req.Records[i], r.Result)
		items[i] = batchItem{priceResponse: h.toResponse(r.Result)}
	}
	success(c, gin.H{"results": items})
}

func (h *Handler) Predictions(c *gin.Context) {
	if h.journal == nil {
		fail(c, http.StatusNotFound, "not_found", "prediction history is disabled")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		fail(c, http.StatusBadRequest, "invalid_input", "limit must be a positive integer")
		return
	}
	entries, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	success(c, entries)
}

// Stats 返回线上输入的特征统计。
func (h *Handler) Stats(c *gin.Context) {
	if h.monitor == nil {
		fail(c, http.StatusNotFound, "not_found", "feature monitor is disabled")
		return
	}
	success(c, h.monitor.Snapshot())
}

func (h *Handler) toResponse(res *pricing.Result) *priceResponse {
	return &priceResponse{
		Price:         res.Price,
		Formatted:     format.Price(res.Price, h.locale),
		ModelVersion:  res.ModelVersion,
		Fallbacks:     res.Fallbacks,
		Contributions: res.Contributions,
	}
}

// journalRecord 写估价日志；失败只记录日志，不影响响应。
func (h *Handler) journalRecord(ctx context.Context, record core.Record, res *pricing.Result) {
	if h.journal == nil {
		return
	}
	err := h.journal.Record(ctx, &history.Entry{
		ModelVersion: res.ModelVersion,
		Record:       record,
		Price:        res.Price,
		Fallbacks:    res.Fallbacks,
	})
	if err != nil {
		h.logger.Warn("record prediction failed", zap.Error(err))
	}
}

// validatingPredictor 在估价前执行校验规则。
type validatingPredictor struct {
	next  pricing.Predictor
	rules *dsl.RuleSet
}

func (p *validatingPredictor) Predict(ctx context.Context, record core.Record) (*pricing.Result, error) {
	if err := p.rules.Validate(record); err != nil {
		return nil, err
	}
	return p.next.Predict(ctx, record)
}

func (p *validatingPredictor) Version() string { return p.next.Version() }

func (p *validatingPredictor) Generation() uint64 { return p.next.Generation() }

// decodeJSON 解码请求体，数字保留为 json.Number，交由编码器统一转换。
func decodeJSON(body io.Reader, v any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
