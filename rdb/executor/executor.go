package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hatlonely/goorm/cfg"
	"github.com/hatlonely/goorm/log"
	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/dialect"
	"github.com/hatlonely/goorm/rdb/pool"
)

const (
	operationQuery   = "query"
	operationExecute = "execute"
)

type Options struct {
	// Name 指标名前缀，同时作为日志和 span 的 component
	Name          string        `cfg:"name" def:"rdb" validate:"required"`
	EnableMetrics *bool         `cfg:"enableMetrics" def:"true"`
	EnableTracing bool          `cfg:"enableTracing"`
	SlowThreshold time.Duration `cfg:"slowThreshold" def:"500ms"`

	Logger     logger.Logger         `cfg:"-"`
	Registerer prometheus.Registerer `cfg:"-"` // 默认 prometheus.DefaultRegisterer
}

// Executor 在连接池上执行语句，每条语句独立借出和归还连接，失败不重试
type Executor struct {
	pool          *pool.Pool
	name          string
	slowThreshold time.Duration
	logger        logger.Logger
	metrics       *metrics
	tracer        trace.Tracer
}

func NewExecutor(p *pool.Pool) (*Executor, error) {
	return NewExecutorWithOptions(p, &Options{})
}

func NewExecutorWithOptions(p *pool.Pool, options *Options) (*Executor, error) {
	if p == nil {
		return nil, rdb.New(rdb.ErrKindConfiguration, "pool is nil")
	}
	if options == nil {
		options = &Options{}
	}
	if err := cfg.Complete(options); err != nil {
		return nil, rdb.Wrap(rdb.ErrKindConfiguration, "invalid executor options", err)
	}

	e := &Executor{
		pool:          p,
		name:          options.Name,
		slowThreshold: options.SlowThreshold,
		logger:        options.Logger,
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	e.logger = e.logger.With("component", options.Name)

	if *options.EnableMetrics {
		registerer := options.Registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		e.metrics = newMetrics(options.Name, registerer, p)
	}
	if options.EnableTracing {
		e.tracer = otel.Tracer(fmt.Sprintf("rdb.%s", options.Name))
	}
	return e, nil
}

func (e *Executor) Dialect() *dialect.Dialect {
	return e.pool.Dialect()
}

// Query 执行读语句，limit > 0 时最多返回 limit 行
func (e *Executor) Query(ctx context.Context, query string, args []any, limit int) ([]map[string]any, error) {
	if err := checkArgs(query, args); err != nil {
		return nil, err
	}

	var rows []map[string]any
	err := e.observe(ctx, operationQuery, query, len(args), func(ctx context.Context) (int64, error) {
		err := e.run(ctx, func(conn pool.Conn) error {
			var err error
			rows, err = conn.Query(ctx, e.Dialect().Rebind(query), args, limit)
			return err
		})
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Execute 执行写语句，返回影响行数
func (e *Executor) Execute(ctx context.Context, query string, args []any) (int64, error) {
	if err := checkArgs(query, args); err != nil {
		return 0, err
	}

	var affected int64
	err := e.observe(ctx, operationExecute, query, len(args), func(ctx context.Context) (int64, error) {
		err := e.run(ctx, func(conn pool.Conn) error {
			var err error
			affected, err = conn.Exec(ctx, e.Dialect().Rebind(query), args)
			return err
		})
		return affected, err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// run 借出连接执行 fn，驱动错误包装为 DatabaseExecution，借出失败的错误原样返回
func (e *Executor) run(ctx context.Context, fn func(conn pool.Conn) error) error {
	var execErr error
	err := e.pool.WithConn(ctx, func(conn pool.Conn) error {
		execErr = fn(conn)
		return execErr
	})
	if execErr != nil {
		return rdb.Wrap(rdb.ErrKindDatabaseExecution, "execute statement failed", execErr)
	}
	return err
}

func (e *Executor) observe(ctx context.Context, operation string, statement string, nargs int, fn func(context.Context) (int64, error)) error {
	start := time.Now()

	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, fmt.Sprintf("rdb.%s", operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("component", e.name),
				attribute.String("db.system", e.Dialect().Name),
				attribute.String("db.statement", statement),
			),
		)
		defer span.End()
	}

	rows, err := fn(ctx)
	duration := time.Since(start)

	if span != nil {
		span.SetAttributes(attribute.Int64("db.rows", rows))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if e.metrics != nil {
		e.metrics.observe(operation, duration.Seconds(), rows, err)
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "statement failed",
			"operation", operation,
			"statement", statement,
			"args", nargs,
			"durationMs", duration.Milliseconds(),
			"error", err.Error(),
		)
		return err
	}
	if e.slowThreshold > 0 && duration >= e.slowThreshold {
		e.logger.WarnContext(ctx, "slow statement",
			"operation", operation,
			"statement", statement,
			"args", nargs,
			"rows", rows,
			"durationMs", duration.Milliseconds(),
		)
		return nil
	}
	e.logger.InfoContext(ctx, "statement executed",
		"operation", operation,
		"statement", statement,
		"args", nargs,
		"rows", rows,
		"durationMs", duration.Milliseconds(),
	)
	return nil
}
