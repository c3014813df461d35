package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/hatlonely/goorm/rdb/dialect"
)

// Connector 建立物理连接
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
	Close() error
}

// Conn 一个物理连接，同一时间只被一个调用方持有
type Conn interface {
	// Query 执行读语句，limit > 0 时最多返回 limit 行，每行是列名到值的映射
	Query(ctx context.Context, query string, args []any, limit int) ([]map[string]any, error)
	// Exec 执行写语句，返回影响行数
	Exec(ctx context.Context, query string, args []any) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// IsBadConn 连接已经不可用，归还时应该销毁而不是复用
func IsBadConn(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}

// SQLConnector 基于 database/sql 的连接器，复用由 Pool 负责，
// 所以 sql.DB 不保留空闲连接，sql.Conn 关闭即断开物理连接
type SQLConnector struct {
	db *sqlx.DB
}

func NewSQLConnector(d *dialect.Dialect, dsn string, maxOpen int) (*SQLConnector, error) {
	db, err := sqlx.Open(d.DriverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(0)
	return &SQLConnector{db: db}, nil
}

func (c *SQLConnector) Connect(ctx context.Context) (Conn, error) {
	conn, err := c.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

func (c *SQLConnector) Close() error {
	return c.db.Close()
}

type sqlConn struct {
	conn *sqlx.Conn
}

func (c *sqlConn) Query(ctx context.Context, query string, args []any, limit int) ([]map[string]any, error) {
	rows, err := c.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []map[string]any
	for (limit <= 0 || len(result) < limit) && rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *sqlConn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *sqlConn) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

func (c *sqlConn) Close() error {
	return c.conn.Close()
}
