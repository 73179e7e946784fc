package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/carprice/model"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/carprice/config/builders"
// 以触发内置加载器（file、http、redis、s3）的 init 注册。

// LoaderBuilder 根据 artifact 配置构建模型加载器。
// 各加载器在 init 中调用 Register(source, builder) 即可被配置驱动。
type LoaderBuilder func(ctx context.Context, cfg ArtifactConfig) (model.ArtifactLoader, error)

var (
	defaultBuilders   = make(map[string]LoaderBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种模型来源的加载器构建逻辑。
// 建议在 init 中调用，例如：func init() { config.Register("file", BuildFileLoader) }
func Register(source string, builder LoaderBuilder) {
	if source == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[source] = builder
}

// SupportedSources 返回当前已注册的来源列表（排序），用于错误提示与校验。
func SupportedSources() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	sources := make([]string, 0, len(defaultBuilders))
	for s := range defaultBuilders {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources
}

// IsSupportedSource 判断来源是否已注册。
func IsSupportedSource(source string) bool {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	_, ok := defaultBuilders[source]
	return ok
}

// BuildLoader 按配置中的来源构建加载器；未注册的来源返回包含已支持列表的错误。
func BuildLoader(ctx context.Context, cfg ArtifactConfig) (model.ArtifactLoader, error) {
	defaultBuildersMu.RLock()
	builder, ok := defaultBuilders[cfg.Source]
	defaultBuildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported artifact source %q (supported: %v)", cfg.Source, SupportedSources())
	}
	return builder(ctx, cfg)
}
