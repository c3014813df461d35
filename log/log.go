package log

import (
	"sync"

	"github.com/hatlonely/goorm/log/logger"
	"github.com/pkg/errors"
)

type Options = logger.Options

var (
	defaultMu     sync.RWMutex
	defaultLogger logger.Logger
)

func init() {
	// 默认向终端输出 text 格式的 info 日志
	l, err := logger.NewSLogWithOptions(&logger.Options{Level: "info", Format: "text"})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	defaultLogger = l
}

// NewLoggerWithOptions 按 Type 选择 slog 或 zerolog
func NewLoggerWithOptions(options *Options) (logger.Logger, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	switch options.Type {
	case "", "slog":
		l, err := logger.NewSLogWithOptions(options)
		if err != nil {
			return nil, errors.WithMessage(err, "logger.NewSLogWithOptions failed")
		}
		return l, nil
	case "zerolog":
		l, err := logger.NewZeroLogWithOptions(options)
		if err != nil {
			return nil, errors.WithMessage(err, "logger.NewZeroLogWithOptions failed")
		}
		return l, nil
	}
	return nil, errors.Errorf("unsupported logger type %q", options.Type)
}

func Default() logger.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault 替换进程级默认日志器，nil 被忽略
func SetDefault(l logger.Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
