package core

import "fmt"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 定位到具体字段（Field）与取值（Value），便于诊断
//   - 支持 errors.Is：同 Code 即视为同一类错误
//
// 使用场景：
//   - Feature 错误：UNKNOWN_CATEGORY_LABEL, MISSING_FEATURE, INVALID_FEATURE_VALUE
//   - Model 错误：FEATURE_VECTOR_LENGTH_MISMATCH, INVALID_ARTIFACT
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "MISSING_FEATURE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "model", "store"）
	Field   string // 出错的字段名（可为空）
	Value   string // 出错的取值（可为空）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 让 errors.Is(err, ErrMissingFeature) 这类按错误代码的判断成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError（支持被 %w 包装），如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	for err != nil {
		if domainErr, ok := err.(*DomainError); ok {
			return domainErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 编码/预测错误代码
	ErrorCodeUnknownCategoryLabel        = "UNKNOWN_CATEGORY_LABEL"         // 展示层标签无法翻译
	ErrorCodeMissingFeature              = "MISSING_FEATURE"                // 记录缺少声明的特征
	ErrorCodeInvalidFeatureValue         = "INVALID_FEATURE_VALUE"          // 数值特征不是数字
	ErrorCodeFeatureVectorLengthMismatch = "FEATURE_VECTOR_LENGTH_MISMATCH" // 特征向量与系数长度不一致
	ErrorCodeInvalidArtifact             = "INVALID_ARTIFACT"               // 模型文件不满足约束
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleFeature = "feature" // 特征模块
	ModuleModel   = "model"   // 模型模块
	ModuleService = "service" // 服务模块
)

// 哨兵错误，仅用于 errors.Is 判断
var (
	ErrUnknownCategoryLabel        = &DomainError{Code: ErrorCodeUnknownCategoryLabel}
	ErrMissingFeature              = &DomainError{Code: ErrorCodeMissingFeature}
	ErrInvalidFeatureValue         = &DomainError{Code: ErrorCodeInvalidFeatureValue}
	ErrFeatureVectorLengthMismatch = &DomainError{Code: ErrorCodeFeatureVectorLengthMismatch}
	ErrInvalidArtifact             = &DomainError{Code: ErrorCodeInvalidArtifact}
	ErrInvalidInput                = &DomainError{Code: ErrorCodeInvalidInput}
	ErrUnavailable                 = &DomainError{Code: ErrorCodeUnavailable}
)

// NewInvalidInputError 记录未通过校验规则。
func NewInvalidInputError(field, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  ModuleService,
		Code:    ErrorCodeInvalidInput,
		Message: "service: " + fmt.Sprintf(format, args...),
		Field:   field,
	}
}

// NewUnavailableError 服务暂不可用（例如模型尚未加载）。
func NewUnavailableError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeUnavailable, module+": "+message)
}

// NewUnknownCategoryLabelError 展示层标签在翻译表中不存在。
func NewUnknownCategoryLabelError(field, value string) *DomainError {
	return &DomainError{
		Module:  ModuleFeature,
		Code:    ErrorCodeUnknownCategoryLabel,
		Message: fmt.Sprintf("feature: unknown category label %q for field %q", value, field),
		Field:   field,
		Value:   value,
	}
}

// NewMissingFeatureError 记录中缺少模型声明的特征。
func NewMissingFeatureError(field string) *DomainError {
	return &DomainError{
		Module:  ModuleFeature,
		Code:    ErrorCodeMissingFeature,
		Message: fmt.Sprintf("feature: missing feature %q", field),
		Field:   field,
	}
}

// NewInvalidFeatureValueError 数值特征的取值无法转换为数字。
func NewInvalidFeatureValueError(field string, value any) *DomainError {
	v := fmt.Sprintf("%v", value)
	return &DomainError{
		Module:  ModuleFeature,
		Code:    ErrorCodeInvalidFeatureValue,
		Message: fmt.Sprintf("feature: value %q of field %q is not numeric", v, field),
		Field:   field,
		Value:   v,
	}
}

// NewFeatureVectorLengthMismatchError 特征向量长度与系数长度不一致，通常意味着模型与编码器版本不匹配。
func NewFeatureVectorLengthMismatchError(got, want int) *DomainError {
	return &DomainError{
		Module:  ModuleModel,
		Code:    ErrorCodeFeatureVectorLengthMismatch,
		Message: fmt.Sprintf("model: feature vector length %d does not match %d coefficients", got, want),
		Value:   fmt.Sprintf("%d", got),
	}
}

// NewInvalidArtifactError 模型文件不满足约束。
func NewInvalidArtifactError(field, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  ModuleModel,
		Code:    ErrorCodeInvalidArtifact,
		Message: "model: invalid artifact: " + fmt.Sprintf(format, args...),
		Field:   field,
	}
}

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsRecordError 检查错误是否由请求记录本身引起（翻译失败、缺字段、非数字取值、校验失败）。
func IsRecordError(err error) bool {
	return hasCode(err, ErrorCodeUnknownCategoryLabel) ||
		hasCode(err, ErrorCodeMissingFeature) ||
		hasCode(err, ErrorCodeInvalidFeatureValue) ||
		hasCode(err, ErrorCodeInvalidInput)
}
