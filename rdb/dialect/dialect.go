package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ConnParams 构造 DSN 需要的连接参数
type ConnParams struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	Charset        string
	Autocommit     bool
	ConnectTimeout time.Duration
}

// Pagination 分页语法
type Pagination int

const (
	// PaginationComma LIMIT offset, count
	PaginationComma Pagination = iota
	// PaginationOffset LIMIT count OFFSET offset
	PaginationOffset
)

// Dialect 描述一种数据库的 SQL 方言和驱动
type Dialect struct {
	Name        string
	DriverName  string // database/sql 注册的驱动名
	DefaultPort int
	Quote       byte
	Pagination  Pagination
	BuildDSN    func(params *ConnParams) (string, error)
}

// QuoteIdent 转义标识符，标识符内部的引号会被双写
func (d *Dialect) QuoteIdent(name string) string {
	q := string(d.Quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// Limit 只限制条数
func (d *Dialect) Limit(count int) (string, []any) {
	return "LIMIT ?", []any{count}
}

// Paginate 按 offset/count 取一个窗口
func (d *Dialect) Paginate(offset, count int) (string, []any) {
	if d.Pagination == PaginationOffset {
		return "LIMIT ? OFFSET ?", []any{count, offset}
	}
	return "LIMIT ?, ?", []any{offset, count}
}

func (d *Dialect) String() string {
	return d.Name
}

var MySQL = &Dialect{
	Name:        "mysql",
	DriverName:  "mysql",
	DefaultPort: 3306,
	Quote:       '`',
	Pagination:  PaginationComma,
	BuildDSN:    buildMySQLDSN,
}

var SQLite3 = &Dialect{
	Name:       "sqlite3",
	DriverName: "sqlite3",
	Quote:      '"',
	Pagination: PaginationComma,
	BuildDSN:   buildSQLite3DSN,
}

var Postgres = &Dialect{
	Name:        "postgres",
	DriverName:  "pgx",
	DefaultPort: 5432,
	Quote:       '"',
	Pagination:  PaginationOffset,
	BuildDSN:    buildPostgresDSN,
}

func buildMySQLDSN(params *ConnParams) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = params.User
	cfg.Passwd = params.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(params.Host, strconv.Itoa(params.Port))
	cfg.DBName = params.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Timeout = params.ConnectTimeout
	cfg.Params = map[string]string{
		"autocommit": strconv.FormatBool(params.Autocommit),
	}
	if params.Charset != "" {
		cfg.Params["charset"] = params.Charset
	}
	return cfg.FormatDSN(), nil
}

func buildSQLite3DSN(params *ConnParams) (string, error) {
	if params.Database == "" {
		return "", fmt.Errorf("sqlite3 database path is required")
	}
	if params.Database == ":memory:" {
		// 每个连接都会打开一个独立的内存库，连接池下数据不可见
		return "", fmt.Errorf("sqlite3 in-memory database cannot be shared across pooled connections")
	}
	timeout := params.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	sep := "?"
	if strings.Contains(params.Database, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", params.Database, sep, timeout.Milliseconds()), nil
}

func buildPostgresDSN(params *ConnParams) (string, error) {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(params.User, params.Password),
		Host:   net.JoinHostPort(params.Host, strconv.Itoa(params.Port)),
		Path:   "/" + params.Database,
	}
	q := url.Values{}
	if params.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(params.ConnectTimeout.Seconds())))
	}
	if params.Charset != "" {
		q.Set("client_encoding", postgresEncoding(params.Charset))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func postgresEncoding(charset string) string {
	switch strings.ToLower(charset) {
	case "utf8", "utf8mb4", "utf-8":
		return "UTF8"
	}
	return charset
}
