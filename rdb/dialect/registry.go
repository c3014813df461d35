package dialect

import (
	"fmt"
	"sort"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hatlonely/goorm/rdb"
)

var dialects sync.Map

func init() {
	MustRegister(MySQL)
	MustRegister(SQLite3)
	MustRegister(Postgres)
}

// Register 注册方言，同名重复注册返回错误
func Register(d *Dialect) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("dialect name is required")
	}
	if d.BuildDSN == nil {
		return fmt.Errorf("dialect %s has no dsn builder", d.Name)
	}
	if d.Quote == 0 {
		return fmt.Errorf("dialect %s has no quote character", d.Name)
	}
	if _, loaded := dialects.LoadOrStore(d.Name, d); loaded {
		return fmt.Errorf("dialect %s already registered", d.Name)
	}
	return nil
}

func MustRegister(d *Dialect) {
	if err := Register(d); err != nil {
		panic(err)
	}
}

// Get 按名字查找方言
func Get(name string) (*Dialect, error) {
	v, ok := dialects.Load(name)
	if !ok {
		return nil, rdb.Newf(rdb.ErrKindConfiguration, "unsupported driver %q", name)
	}
	return v.(*Dialect), nil
}

func Names() []string {
	var names []string
	dialects.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
