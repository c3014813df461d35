package logger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hatlonely/goorm/log/writer"
)

// Logger 日志接口，args 为交替出现的 key, value
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// Options slog 和 zerolog 共用的配置
type Options struct {
	// 后端：slog, zerolog
	Type string `cfg:"type" def:"slog" validate:"oneof=slog zerolog"`
	// 日志级别：debug, info, warn, error
	Level string `cfg:"level" def:"info" validate:"oneof=debug info warn warning error"`
	// 输出格式：slog 支持 text, json；zerolog 支持 json, console
	Format     string          `cfg:"format"`
	TimeFormat string          `cfg:"timeFormat" def:"2006-01-02T15:04:05Z07:00"`
	AddSource  bool            `cfg:"addSource"`
	Fields     map[string]any  `cfg:"fields"`
	Output     *writer.Options `cfg:"output"`
}

type level int

const (
	levelDebug level = iota - 1
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) (level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return levelDebug, nil
	case "", "info":
		return levelInfo, nil
	case "warn", "warning":
		return levelWarn, nil
	case "error":
		return levelError, nil
	}
	return levelInfo, fmt.Errorf("unknown level: %s", s)
}

func timeFormat(options *Options) string {
	if options.TimeFormat == "" {
		return time.RFC3339
	}
	return options.TimeFormat
}

// fieldArgs 把静态字段展开成 key, value 列表
func fieldArgs(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
