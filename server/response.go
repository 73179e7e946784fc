package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rushteam/carprice/core"
)

// APIError 是接口返回的错误体。
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": APIError{Code: code, Message: message}})
}

// toAPIError 把领域错误转换为 HTTP 状态码与错误体。
func toAPIError(err error) (int, APIError) {
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, APIError{Code: "internal", Message: "internal error"}
	}
	apiErr := APIError{
		Code:    strings.ToLower(de.Code),
		Message: de.Message,
		Field:   de.Field,
		Value:   de.Value,
	}
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, apiErr
	case core.IsRecordError(err):
		return http.StatusUnprocessableEntity, apiErr
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable, apiErr
	default:
		// FEATURE_VECTOR_LENGTH_MISMATCH 等：模型文件与编码器不一致，属于服务端问题
		return http.StatusInternalServerError, apiErr
	}
}

func handleError(c *gin.Context, logger *zap.Logger, err error) {
	status, apiErr := toAPIError(err)
	requestID, _ := c.Get(requestIDKey)
	fields := []zap.Field{
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apiErr})
}
