package executor

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/pool"
)

type call struct {
	query string
	args  []any
	limit int
}

// scriptedConnector 记录收到的语句，按预设返回结果或错误
type scriptedConnector struct {
	mu       sync.Mutex
	calls    []call
	rows     []map[string]any
	affected int64
	err      error
	conns    []*scriptedConn
	onQuery  func()
}

func (c *scriptedConnector) Connect(ctx context.Context) (pool.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn := &scriptedConn{connector: c}
	c.conns = append(c.conns, conn)
	return conn, nil
}

func (c *scriptedConnector) Close() error { return nil }

func (c *scriptedConnector) lastCall() call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return call{}
	}
	return c.calls[len(c.calls)-1]
}

type scriptedConn struct {
	connector *scriptedConnector
	closed    atomic.Bool
}

func (c *scriptedConn) Query(ctx context.Context, query string, args []any, limit int) ([]map[string]any, error) {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	c.connector.calls = append(c.connector.calls, call{query: query, args: args, limit: limit})
	if c.connector.onQuery != nil {
		c.connector.onQuery()
	}
	if c.connector.err != nil {
		return nil, c.connector.err
	}
	rows := c.connector.rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (c *scriptedConn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	c.connector.calls = append(c.connector.calls, call{query: query, args: args})
	if c.connector.err != nil {
		return 0, c.connector.err
	}
	return c.connector.affected, nil
}

func (c *scriptedConn) Ping(ctx context.Context) error { return nil }

func (c *scriptedConn) Close() error {
	c.closed.Store(true)
	return nil
}

func newTestExecutor(driver string, connector *scriptedConnector, buf *bytes.Buffer, registry *prometheus.Registry) (*Executor, *pool.Pool) {
	p, err := pool.NewPoolWithConnector(context.Background(), &pool.Options{
		Driver:      driver,
		User:        "www-data",
		Password:    "www-data",
		Database:    "awesome",
		MaxPoolSize: 2,
	}, connector)
	So(err, ShouldBeNil)

	l, err := logger.NewSLogWithWriter(buf, &logger.Options{Level: "info", Format: "json"})
	So(err, ShouldBeNil)

	e, err := NewExecutorWithOptions(p, &Options{
		Name:          "test",
		EnableTracing: true,
		Logger:        l,
		Registerer:    registry,
	})
	So(err, ShouldBeNil)
	return e, p
}

func TestExecutor(t *testing.T) {
	Convey("测试语句执行", t, func() {
		ctx := context.Background()
		buf := &bytes.Buffer{}
		registry := prometheus.NewRegistry()
		connector := &scriptedConnector{
			rows: []map[string]any{
				{"id": int64(1), "name": "alice"},
				{"id": int64(2), "name": "bob"},
				{"id": int64(3), "name": "carol"},
			},
			affected: 1,
		}
		e, p := newTestExecutor("mysql", connector, buf, registry)
		defer p.Shutdown(ctx)

		Convey("参数个数不匹配时不借出连接", func() {
			_, err := e.Query(ctx, "SELECT * FROM users WHERE id=?", nil, 0)
			So(rdb.IsArgumentCount(err), ShouldBeTrue)

			_, err = e.Execute(ctx, "DELETE FROM users WHERE id=?", []any{1, 2})
			So(rdb.IsArgumentCount(err), ShouldBeTrue)

			So(p.Stat().AcquireCount, ShouldEqual, 0)
			So(len(connector.calls), ShouldEqual, 0)
		})

		Convey("Query 按 limit 截断", func() {
			rows, err := e.Query(ctx, "SELECT id, name FROM users WHERE id>?", []any{0}, 2)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0]["name"], ShouldEqual, "alice")
			So(connector.lastCall().limit, ShouldEqual, 2)
			So(connector.lastCall().args, ShouldResemble, []any{0})

			rows, err = e.Query(ctx, "SELECT id, name FROM users", nil, 0)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 3)
			So(p.Stat().Acquired, ShouldEqual, 0)
		})

		Convey("Execute 返回影响行数并记录日志", func() {
			n, err := e.Execute(ctx, "DELETE FROM users WHERE id=?", []any{7})
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(buf.String(), ShouldContainSubstring, "statement executed")
			So(buf.String(), ShouldContainSubstring, "DELETE FROM users WHERE id=?")
			So(buf.String(), ShouldContainSubstring, `"component":"test"`)
		})

		Convey("驱动错误原样透出，连接归还", func() {
			cause := errors.New("Error 1146 (42S02): Table 'awesome.missing' doesn't exist")
			connector.err = cause

			_, err := e.Query(ctx, "SELECT * FROM missing", nil, 0)
			So(rdb.IsDatabaseExecution(err), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Table 'awesome.missing' doesn't exist")
			So(p.Stat().Acquired, ShouldEqual, 0)
			So(p.Stat().Total, ShouldEqual, 1)
			So(buf.String(), ShouldContainSubstring, "statement failed")
			So(len(connector.calls), ShouldEqual, 1)
		})

		Convey("失效连接被销毁", func() {
			connector.err = driver.ErrBadConn
			_, err := e.Execute(ctx, "UPDATE users SET name=? WHERE id=?", []any{"x", 1})
			So(rdb.IsDatabaseExecution(err), ShouldBeTrue)

			closed := func() bool {
				connector.mu.Lock()
				defer connector.mu.Unlock()
				return connector.conns[0].closed.Load()
			}
			deadline := time.Now().Add(2 * time.Second)
			for !closed() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(closed(), ShouldBeTrue)
		})

		Convey("被取消的语句不归还连接", func() {
			cancelCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			connector.onQuery = cancel
			connector.err = context.Canceled
			_, err := e.Query(cancelCtx, "SELECT * FROM users WHERE id=?", []any{1}, 0)
			So(rdb.IsDatabaseExecution(err), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)

			closed := func() bool {
				connector.mu.Lock()
				defer connector.mu.Unlock()
				return connector.conns[0].closed.Load()
			}
			deadline := time.Now().Add(2 * time.Second)
			for !closed() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(closed(), ShouldBeTrue)
		})

		Convey("指标", func() {
			_, _ = e.Query(ctx, "SELECT id, name FROM users", nil, 0)
			_, _ = e.Execute(ctx, "DELETE FROM users WHERE id=?", []any{1})
			connector.err = errors.New("boom")
			_, _ = e.Execute(ctx, "DELETE FROM users WHERE id=?", []any{1})

			So(testutil.ToFloat64(e.metrics.statements.WithLabelValues("query", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(e.metrics.statements.WithLabelValues("execute", "success")), ShouldEqual, 1)
			So(testutil.ToFloat64(e.metrics.statements.WithLabelValues("execute", "error")), ShouldEqual, 1)
			So(testutil.ToFloat64(e.metrics.rows.WithLabelValues("query")), ShouldEqual, 3)

			n, err := testutil.GatherAndCount(registry, "test_pool_connections")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 4)

			// 同名指标重复注册时复用
			e2, err := NewExecutorWithOptions(p, &Options{Name: "test", Registerer: registry})
			So(err, ShouldBeNil)
			So(e2.metrics.statements, ShouldEqual, e.metrics.statements)
		})

		Convey("连接池关闭后执行失败", func() {
			So(p.Shutdown(ctx), ShouldBeNil)
			_, err := e.Query(ctx, "SELECT 1", nil, 0)
			So(rdb.IsPoolClosed(err), ShouldBeTrue)
		})
	})
}

func poolGauge(registry *prometheus.Registry, state string) float64 {
	families, err := registry.Gather()
	So(err, ShouldBeNil)
	for _, mf := range families {
		if mf.GetName() != "test_pool_connections" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "state" && l.GetValue() == state {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	return -1
}

func TestExecutorPoolMetrics(t *testing.T) {
	Convey("测试连接池指标跟随新的连接池", t, func() {
		ctx := context.Background()
		registry := prometheus.NewRegistry()

		_, p1 := newTestExecutor("mysql", &scriptedConnector{}, &bytes.Buffer{}, registry)
		So(poolGauge(registry, "total"), ShouldEqual, 1)
		So(p1.Shutdown(ctx), ShouldBeNil)

		_, p2 := newTestExecutor("mysql", &scriptedConnector{}, &bytes.Buffer{}, registry)
		defer p2.Shutdown(ctx)

		sc, err := p2.Acquire(ctx)
		So(err, ShouldBeNil)
		defer sc.Release()

		So(poolGauge(registry, "acquired"), ShouldEqual, 1)
		So(poolGauge(registry, "total"), ShouldEqual, float64(p2.Stat().Total))
		So(poolGauge(registry, "max"), ShouldEqual, 2)
	})
}

func TestExecutorRebind(t *testing.T) {
	Convey("测试 postgres 占位符改写", t, func() {
		ctx := context.Background()
		connector := &scriptedConnector{affected: 1}
		e, p := newTestExecutor("postgres", connector, &bytes.Buffer{}, prometheus.NewRegistry())
		defer p.Shutdown(ctx)

		_, err := e.Execute(ctx, `UPDATE "users" SET "name"=? WHERE "id"=?`, []any{"bob", 1})
		So(err, ShouldBeNil)
		So(connector.lastCall().query, ShouldEqual, `UPDATE "users" SET "name"=$1 WHERE "id"=$2`)
		So(e.Dialect().Name, ShouldEqual, "postgres")

		_, err = e.Query(ctx, `SELECT * FROM "t" WHERE "a" = ? AND "b" = '?'`, []any{1}, 0)
		So(err, ShouldBeNil)
		So(connector.lastCall().query, ShouldEqual, `SELECT * FROM "t" WHERE "a" = $1 AND "b" = '?'`)
		So(connector.lastCall().args, ShouldResemble, []any{1})
	})
}

func TestExecutorOptions(t *testing.T) {
	Convey("测试执行器配置", t, func() {
		_, err := NewExecutorWithOptions(nil, nil)
		So(rdb.IsConfiguration(err), ShouldBeTrue)
	})
}
