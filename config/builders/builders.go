package builders

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/carprice/config"
	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/model"
	"github.com/rushteam/carprice/pkg/conv"
	"github.com/rushteam/carprice/store"
)

func init() {
	config.Register("file", BuildFileLoader)
	config.Register("http", BuildHTTPLoader)
	config.Register("redis", BuildRedisLoader)
	config.Register("s3", BuildS3Loader)
}

func BuildFileLoader(_ context.Context, _ config.ArtifactConfig) (model.ArtifactLoader, error) {
	return model.NewFileLoader(), nil
}

func BuildHTTPLoader(_ context.Context, cfg config.ArtifactConfig) (model.ArtifactLoader, error) {
	sec := conv.ConfigGetInt(cfg.Params, "timeout", 10)
	return model.NewHTTPLoader(time.Duration(sec) * time.Second), nil
}

func BuildRedisLoader(ctx context.Context, cfg config.ArtifactConfig) (model.ArtifactLoader, error) {
	s, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return model.NewStoreLoader(s), nil
}

func BuildS3Loader(ctx context.Context, cfg config.ArtifactConfig) (model.ArtifactLoader, error) {
	s, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return model.NewStoreLoader(s), nil
}

// NewStore 按来源（redis / s3）创建共享存储，用于加载与发布模型文件。
func NewStore(ctx context.Context, cfg config.ArtifactConfig) (core.Store, error) {
	switch cfg.Source {
	case "redis":
		addr := conv.ConfigGet(cfg.Params, "addr", "127.0.0.1:6379")
		db := conv.ConfigGetInt(cfg.Params, "db", 0)
		s, err := store.NewRedisStore(addr, db)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return s, nil
	case "s3":
		s3cfg := store.S3Config{
			Endpoint:  conv.ConfigGet(cfg.Params, "endpoint", ""),
			Region:    conv.ConfigGet(cfg.Params, "region", ""),
			Bucket:    conv.ConfigGet(cfg.Params, "bucket", ""),
			Prefix:    conv.ConfigGet(cfg.Params, "prefix", ""),
			SecretID:  conv.ConfigGet(cfg.Params, "secret_id", ""),
			SecretKey: conv.ConfigGet(cfg.Params, "secret_key", ""),
		}
		s, err := store.NewS3Store(ctx, s3cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("artifact source %q has no shared store", cfg.Source)
	}
}
