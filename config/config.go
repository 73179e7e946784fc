package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/carprice/pkg/dsl"
	"github.com/rushteam/carprice/pkg/logutil"
	"github.com/rushteam/carprice/pricing"
)

// Config 是服务的完整配置。
type Config struct {
	Server     ServerConfig      `yaml:"server" json:"server"`
	Artifact   ArtifactConfig    `yaml:"artifact" json:"artifact"`
	Log        logutil.LogConfig `yaml:"log" json:"log"`
	Cache      CacheConfig       `yaml:"cache" json:"cache"`
	History    HistoryConfig     `yaml:"history" json:"history"`
	Locale     string            `yaml:"locale" json:"locale"`
	Validation ValidationConfig  `yaml:"validation" json:"validation"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Listen  string `yaml:"listen" json:"listen"`
	Mode    string `yaml:"mode" json:"mode"`       // gin 模式：debug / release / test
	Timeout int    `yaml:"timeout" json:"timeout"` // 单个请求超时（秒）
	// BatchLimit 是批量估价单次请求的最大记录数
	BatchLimit int `yaml:"batch_limit" json:"batch_limit"`
	// BatchConcurrency 是单个批量请求内的最大并发估价数
	BatchConcurrency int `yaml:"batch_concurrency" json:"batch_concurrency"`
}

// ArtifactConfig 模型文件来源。
//
// Source 决定 Location 的含义：
//   - file：本地路径，Watch 为 true 时文件变化后热更新
//   - http：URL，params.timeout 为超时秒数
//   - redis：key，params.addr / params.db
//   - s3：object key，params.endpoint / region / bucket / prefix / secret_id / secret_key
type ArtifactConfig struct {
	Source   string         `yaml:"source" json:"source"`
	Location string         `yaml:"location" json:"location"`
	Watch    bool           `yaml:"watch" json:"watch"`
	Params   map[string]any `yaml:"params" json:"params"`
}

// CacheConfig 估价结果缓存。Size 为 0 时关闭。
type CacheConfig struct {
	Size int `yaml:"size" json:"size"`
	TTL  int `yaml:"ttl" json:"ttl"` // 秒
}

// HistoryConfig 估价日志（sqlite）。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// ValidationConfig 输入校验规则。
type ValidationConfig struct {
	// DisableDefaults 为 true 时不加载内置规则
	DisableDefaults bool       `yaml:"disable_defaults" json:"disable_defaults"`
	Rules           []dsl.Rule `yaml:"rules" json:"rules"`
}

// AllRules 返回生效的规则：内置规则在前，自定义规则在后。
func (v ValidationConfig) AllRules() []dsl.Rule {
	var rules []dsl.Rule
	if !v.DisableDefaults {
		rules = append(rules, dsl.DefaultRules()...)
	}
	return append(rules, v.Rules...)
}

// Load 读取配置文件（按扩展名选择 YAML 或 JSON），填充默认值并校验。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// Parse 解析配置内容，isJSON 为 false 时按 YAML 解析。
func Parse(data []byte, isJSON bool) (*Config, error) {
	cfg := &Config{}
	if isJSON {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回只含默认值的配置（模型来源仍需调用方设置）。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 10
	}
	if c.Server.BatchLimit <= 0 {
		c.Server.BatchLimit = 100
	}
	if c.Server.BatchConcurrency <= 0 {
		c.Server.BatchConcurrency = pricing.DefaultBatchConcurrency
	}
	if c.Artifact.Source == "" {
		c.Artifact.Source = "file"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Size > 0 && c.Cache.TTL <= 0 {
		c.Cache.TTL = 300
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = "carprice.db"
	}
	if c.Locale == "" {
		c.Locale = "ru"
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if !IsSupportedSource(c.Artifact.Source) {
		return fmt.Errorf("unsupported artifact source %q (supported: %v)", c.Artifact.Source, SupportedSources())
	}
	if c.Artifact.Location == "" {
		return fmt.Errorf("artifact.location is required")
	}
	if c.Artifact.Watch && c.Artifact.Source != "file" {
		return fmt.Errorf("artifact.watch is only supported for file source")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}
	for i, r := range c.Validation.Rules {
		if r.Name == "" || r.Expr == "" {
			return fmt.Errorf("validation.rules[%d]: name and expr are required", i)
		}
	}
	return nil
}
