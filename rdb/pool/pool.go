package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hatlonely/goorm/log"
	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/dialect"
)

// Pool 有界连接池，同时存活的连接数不超过 MaxPoolSize，
// 池满时 Acquire 阻塞到有连接归还或 ctx 结束
type Pool struct {
	options   *Options
	dialect   *dialect.Dialect
	connector Connector
	pool      *puddle.Pool[Conn]
	logger    logger.Logger
	closed    atomic.Bool
}

// NewPoolWithOptions 校验配置，按驱动创建 SQLConnector 并预先建立 MinPoolSize 个连接
func NewPoolWithOptions(ctx context.Context, options *Options) (*Pool, error) {
	d, err := options.complete()
	if err != nil {
		return nil, err
	}
	dsn, err := options.dsn(d)
	if err != nil {
		return nil, err
	}
	connector, err := NewSQLConnector(d, dsn, int(options.MaxPoolSize))
	if err != nil {
		return nil, rdb.Wrap(rdb.ErrKindConnection, "open database failed", err)
	}
	return newPool(ctx, options, d, connector)
}

// NewPoolWithConnector 使用自定义的 Connector，连接参数只用于选择方言
func NewPoolWithConnector(ctx context.Context, options *Options, connector Connector) (*Pool, error) {
	d, err := options.complete()
	if err != nil {
		return nil, err
	}
	return newPool(ctx, options, d, connector)
}

func newPool(ctx context.Context, options *Options, d *dialect.Dialect, connector Connector) (*Pool, error) {
	p := &Pool{
		options:   options,
		dialect:   d,
		connector: connector,
		logger:    options.Logger,
	}
	if p.logger == nil {
		p.logger = log.Default()
	}

	pool, err := puddle.NewPool(&puddle.Config[Conn]{
		Constructor: p.construct,
		Destructor:  p.destruct,
		MaxSize:     options.MaxPoolSize,
	})
	if err != nil {
		_ = connector.Close()
		return nil, rdb.Wrap(rdb.ErrKindConfiguration, "create pool failed", err)
	}
	p.pool = pool

	g, gctx := errgroup.WithContext(ctx)
	for i := int32(0); i < options.MinPoolSize; i++ {
		g.Go(func() error {
			return pool.CreateResource(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		pool.Close()
		_ = connector.Close()
		return nil, rdb.Wrap(rdb.ErrKindConnection, "database unreachable", err)
	}

	p.logger.InfoContext(ctx, "connection pool initialized",
		"driver", d.Name,
		"host", options.Host,
		"database", options.Database,
		"minPoolSize", options.MinPoolSize,
		"maxPoolSize", options.MaxPoolSize,
	)
	return p, nil
}

func (p *Pool) construct(ctx context.Context) (Conn, error) {
	if p.options.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.options.ConnectTimeout)
		defer cancel()
	}
	conn, err := p.connector.Connect(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "create connection failed", "driver", p.dialect.Name, "error", err)
		return nil, err
	}
	return conn, nil
}

func (p *Pool) destruct(conn Conn) {
	if err := conn.Close(); err != nil {
		p.logger.Warn("close connection failed", "error", err)
	}
}

// Acquire 借出一个连接，调用方必须 Release 或 Discard
func (p *Pool) Acquire(ctx context.Context) (*ScopedConn, error) {
	if p.closed.Load() {
		return nil, rdb.New(rdb.ErrKindPoolClosed, "pool is shut down")
	}
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		switch {
		case errors.Is(err, puddle.ErrClosedPool):
			return nil, rdb.New(rdb.ErrKindPoolClosed, "pool is shut down")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, pkgerrors.WithMessage(err, "acquire connection aborted")
		default:
			return nil, rdb.Wrap(rdb.ErrKindConnection, "acquire connection failed", err)
		}
	}
	return &ScopedConn{res: res}, nil
}

// WithConn 借出连接执行 fn，结束后自动归还。连接失效、语句被 ctx 取消或 fn panic 时销毁连接，
// 驱动在取消时可能已经断开了底层连接
func (p *Pool) WithConn(ctx context.Context, fn func(conn Conn) error) (err error) {
	sc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			sc.Discard()
			panic(r)
		}
		if IsBadConn(err) || (err != nil && ctx.Err() != nil) {
			sc.Discard()
			return
		}
		sc.Release()
	}()
	return fn(sc.Conn())
}

// Shutdown 等待所有借出的连接归还后关闭全部连接，再次调用返回 PoolClosed 错误
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return rdb.New(rdb.ErrKindPoolClosed, "pool is already shut down")
	}
	p.pool.Close()
	if err := p.connector.Close(); err != nil {
		return rdb.Wrap(rdb.ErrKindConnection, "close connector failed", err)
	}
	p.logger.InfoContext(ctx, "connection pool shut down", "driver", p.dialect.Name)
	return nil
}

func (p *Pool) Dialect() *dialect.Dialect {
	return p.dialect
}

type Stat struct {
	Total        int32
	Idle         int32
	Acquired     int32
	Constructing int32
	Max          int32
	AcquireCount int64
	AcquireWait  time.Duration
}

func (p *Pool) Stat() Stat {
	s := p.pool.Stat()
	return Stat{
		Total:        s.TotalResources(),
		Idle:         s.IdleResources(),
		Acquired:     s.AcquiredResources(),
		Constructing: s.ConstructingResources(),
		Max:          s.MaxResources(),
		AcquireCount: s.AcquireCount(),
		AcquireWait:  s.AcquireDuration(),
	}
}

// ScopedConn 借出的连接，Release 和 Discard 只有第一次调用生效
type ScopedConn struct {
	res  *puddle.Resource[Conn]
	once sync.Once
}

func (c *ScopedConn) Conn() Conn {
	return c.res.Value()
}

// Release 归还连接供复用
func (c *ScopedConn) Release() {
	c.once.Do(c.res.Release)
}

// Discard 关闭连接，不再放回池中
func (c *ScopedConn) Discard() {
	c.once.Do(c.res.Destroy)
}
