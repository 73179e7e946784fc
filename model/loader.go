package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rushteam/carprice/core"
)

// ArtifactLoader 模型文件加载器接口
// 支持从不同来源加载模型参数（本地文件、HTTP 接口、Redis、S3 兼容存储等）
type ArtifactLoader interface {
	// Load 加载并校验模型文件
	// source 是数据源标识（文件路径、URL、存储 key 等）
	Load(ctx context.Context, source string) (*Artifact, error)
}

// decodeAndValidate 是各加载器共用的收尾步骤。
func decodeAndValidate(data []byte, format Format) (*Artifact, error) {
	a, err := DecodeArtifact(data, format)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// FileLoader 本地文件模型加载器，.yaml/.yml 按 YAML 解析，其余按 JSON 解析。
type FileLoader struct{}

// NewFileLoader 创建本地文件模型加载器
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load 从本地文件加载模型
func (l *FileLoader) Load(_ context.Context, path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}
	return decodeAndValidate(data, FormatFromPath(path))
}

// LoadArtifact 从文件加载模型
//
// 用法：
//
//	a, err := model.LoadArtifact("models/ridge.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("模型版本: %s\n", a.Version())
func LoadArtifact(path string) (*Artifact, error) {
	return NewFileLoader().Load(context.Background(), path)
}

// HTTPLoader HTTP 接口模型加载器
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader 创建 HTTP 接口模型加载器
//
// 用法：
//
//	loader := model.NewHTTPLoader(5 * time.Second)
//	a, err := loader.Load(ctx, "http://models.internal/carprice/v3.json")
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLoader{
		client: &http.Client{Timeout: timeout},
	}
}

// NewHTTPLoaderWithClient 使用自定义 HTTP 客户端创建加载器
func NewHTTPLoaderWithClient(client *http.Client) *HTTPLoader {
	return &HTTPLoader{client: client}
}

// Load 从 HTTP 接口加载模型
func (l *HTTPLoader) Load(ctx context.Context, url string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http request: status=%d, body=%s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read http response: %w", err)
	}

	var format Format
	switch ct := resp.Header.Get("Content-Type"); {
	case strings.Contains(ct, "json"):
		format = FormatJSON
	case strings.Contains(ct, "yaml"):
		format = FormatYAML
	}
	return decodeAndValidate(data, format)
}

// StoreLoader 从 core.Store（Redis、S3、内存）按 key 加载模型，格式按内容推断。
type StoreLoader struct {
	store core.Store
}

// NewStoreLoader 创建存储模型加载器
//
// 用法：
//
//	rs, _ := store.NewRedisStore("localhost:6379", 0)
//	loader := model.NewStoreLoader(rs)
//	a, err := loader.Load(ctx, "carprice:artifact:latest")
func NewStoreLoader(s core.Store) *StoreLoader {
	return &StoreLoader{store: s}
}

// Load 从存储加载模型
func (l *StoreLoader) Load(ctx context.Context, key string) (*Artifact, error) {
	if l.store == nil {
		return nil, fmt.Errorf("artifact store is not set")
	}
	data, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get artifact %q from %s: %w", key, l.store.Name(), err)
	}
	return decodeAndValidate(data, "")
}

// Publish 将模型文件校验后写入存储，供其他实例通过 StoreLoader 读取。
func Publish(ctx context.Context, s core.Store, key string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}
	data, err := a.Encode(FormatJSON)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("put artifact %q to %s: %w", key, s.Name(), err)
	}
	return nil
}
