package logger

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hatlonely/goorm/log/writer"
)

// ZeroLog zerolog 实现，WithGroup 通过 key 前缀模拟
type ZeroLog struct {
	zlog  zerolog.Logger
	group string
}

func NewZeroLogWithOptions(options *Options) (*ZeroLog, error) {
	if options == nil {
		return nil, fmt.Errorf("options cannot be nil")
	}
	w, err := writer.NewWriterWithOptions(options.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}
	return NewZeroLogWithWriter(w, options)
}

func NewZeroLogWithWriter(w io.Writer, options *Options) (*ZeroLog, error) {
	if options == nil {
		options = &Options{}
	}
	lv, err := parseLevel(options.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out := w
	switch strings.ToLower(options.Format) {
	case "", "json":
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat(options), NoColor: true}
	default:
		return nil, fmt.Errorf("unsupported format: %s", options.Format)
	}

	zctx := zerolog.New(out).Level(zerolog.Level(lv + 1)).With().Timestamp()
	if options.AddSource {
		zctx = zctx.Caller()
	}
	if len(options.Fields) > 0 {
		zctx = zctx.Fields(options.Fields)
	}
	return &ZeroLog{zlog: zctx.Logger()}, nil
}

func (l *ZeroLog) log(ctx context.Context, e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	if ctx != nil {
		e = e.Ctx(ctx)
	}
	e.Fields(l.prefixed(args)).Msg(msg)
}

func (l *ZeroLog) prefixed(args []any) []any {
	if l.group == "" {
		return args
	}
	out := make([]any, len(args))
	for i, v := range args {
		if i%2 == 0 {
			v = l.group + "." + fmt.Sprint(v)
		}
		out[i] = v
	}
	return out
}

func (l *ZeroLog) Debug(msg string, args ...any) { l.log(nil, l.zlog.Debug(), msg, args) }
func (l *ZeroLog) Info(msg string, args ...any)  { l.log(nil, l.zlog.Info(), msg, args) }
func (l *ZeroLog) Warn(msg string, args ...any)  { l.log(nil, l.zlog.Warn(), msg, args) }
func (l *ZeroLog) Error(msg string, args ...any) { l.log(nil, l.zlog.Error(), msg, args) }

func (l *ZeroLog) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.zlog.Debug(), msg, args)
}

func (l *ZeroLog) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.zlog.Info(), msg, args)
}

func (l *ZeroLog) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.zlog.Warn(), msg, args)
}

func (l *ZeroLog) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, l.zlog.Error(), msg, args)
}

func (l *ZeroLog) With(args ...any) Logger {
	return &ZeroLog{zlog: l.zlog.With().Fields(l.prefixed(args)).Logger(), group: l.group}
}

func (l *ZeroLog) WithGroup(name string) Logger {
	group := name
	if l.group != "" {
		group = l.group + "." + name
	}
	return &ZeroLog{zlog: l.zlog, group: group}
}
