// Package logutil 初始化全局 zap 日志：按大小滚动写文件，可选同时输出到控制台。
package logutil

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置。File 为空时只输出到控制台。
type LogConfig struct {
	File      string `yaml:"file" json:"file"`
	Level     string `yaml:"level" json:"level"`
	FileCount int    `yaml:"file_count" json:"file_count"` // 保留的滚动文件个数
	FileSize  int    `yaml:"file_size" json:"file_size"`   // 单文件大小（MB）
	KeepDays  int    `yaml:"keep_days" json:"keep_days"`
	Console   bool   `yaml:"console" json:"console"`
}

// Init 按配置构建 logger 并替换 zap 全局 logger，返回构建好的 logger。
func Init(c LogConfig) *zap.Logger {
	level := ParseLevel(c.Level)
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if c.File != "" {
		w := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.FileSize,
			MaxBackups: c.FileCount,
			MaxAge:     c.KeepDays,
			Compress:   false,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level))
	}
	if c.Console || c.File == "" {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return logger
}

// ParseLevel 解析日志级别，无法识别时使用 info。
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
