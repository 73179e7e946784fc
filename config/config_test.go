package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/carprice/config"
	_ "github.com/rushteam/carprice/config/builders"
	"github.com/rushteam/carprice/model"
)

const yamlConfig = `
server:
  listen: ":9090"
artifact:
  source: file
  location: ./model_artifacts.json
  watch: true
cache:
  size: 128
history:
  enabled: true
validation:
  rules:
    - name: recent_year
      field: year
      expr: "record.year >= 1980.0"
      message: year is too old
`

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carprice.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Listen)
	require.Equal(t, "release", cfg.Server.Mode)
	require.Equal(t, 10, cfg.Server.Timeout)
	require.Equal(t, 8, cfg.Server.BatchConcurrency)
	require.Equal(t, "file", cfg.Artifact.Source)
	require.True(t, cfg.Artifact.Watch)
	require.Equal(t, 300, cfg.Cache.TTL)
	require.Equal(t, "carprice.db", cfg.History.Path)
	require.Equal(t, "ru", cfg.Locale)
	require.Equal(t, "info", cfg.Log.Level)

	rules := cfg.Validation.AllRules()
	require.Equal(t, "recent_year", rules[len(rules)-1].Name)
	require.Greater(t, len(rules), 1)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carprice.json")
	body := `{"artifact":{"source":"redis","location":"carprice:artifact","params":{"addr":"127.0.0.1:6379","db":2}},"validation":{"disable_defaults":true}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "redis", cfg.Artifact.Source)
	require.Equal(t, float64(2), cfg.Artifact.Params["db"])
	require.Empty(t, cfg.Validation.AllRules())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown source", "artifact: {source: ftp, location: x}", "unsupported artifact source"},
		{"missing location", "artifact: {source: file}", "artifact.location is required"},
		{"watch on http", "artifact: {source: http, location: 'http://x', watch: true}", "only supported for file"},
		{"bad mode", "server: {mode: loud}\nartifact: {location: a.json}", "invalid server.mode"},
		{"rule without expr", "artifact: {location: a.json}\nvalidation: {rules: [{name: r}]}", "validation.rules[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.body), false)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry(t *testing.T) {
	require.Equal(t, []string{"file", "http", "redis", "s3"}, config.SupportedSources())

	loader, err := config.BuildLoader(context.Background(), config.ArtifactConfig{Source: "file"})
	require.NoError(t, err)
	require.IsType(t, &model.FileLoader{}, loader)

	loader, err = config.BuildLoader(context.Background(), config.ArtifactConfig{Source: "http", Params: map[string]any{"timeout": 3}})
	require.NoError(t, err)
	require.IsType(t, &model.HTTPLoader{}, loader)

	_, err = config.BuildLoader(context.Background(), config.ArtifactConfig{Source: "s3"})
	require.Error(t, err)

	_, err = config.BuildLoader(context.Background(), config.ArtifactConfig{Source: "ftp"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "supported")
}
