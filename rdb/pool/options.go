package pool

import (
	"strings"
	"time"

	"github.com/hatlonely/goorm/cfg"
	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/dialect"
)

type Options struct {
	Driver   string `cfg:"driver" def:"mysql" validate:"oneof=mysql sqlite3 postgres"`
	Host     string `cfg:"host" def:"localhost"`
	Port     int    `cfg:"port" validate:"gte=0,lte=65535"` // 为 0 时使用方言的默认端口
	User     string `cfg:"user"`
	Password string `cfg:"password"`
	// sqlite3 为数据库文件路径
	Database       string        `cfg:"database"`
	Charset        string        `cfg:"charset" def:"utf8"`
	Autocommit     *bool         `cfg:"autocommit" def:"true"`
	MaxPoolSize    int32         `cfg:"maxPoolSize" def:"10" validate:"gte=1"`
	MinPoolSize    int32         `cfg:"minPoolSize" def:"1" validate:"gte=0,ltefield=MaxPoolSize"`
	ConnectTimeout time.Duration `cfg:"connectTimeout" def:"10s"`
	// 设置后忽略 host/port/user/password/database/charset/autocommit
	DSN string `cfg:"dsn"`

	Logger logger.Logger `cfg:"-"`
}

// complete 填充默认值并校验，返回驱动对应的方言
func (o *Options) complete() (*dialect.Dialect, error) {
	if o == nil {
		return nil, rdb.New(rdb.ErrKindConfiguration, "options is nil")
	}
	if err := cfg.Complete(o); err != nil {
		return nil, rdb.Wrap(rdb.ErrKindConfiguration, "invalid pool options", err)
	}

	if o.DSN == "" {
		var missing []string
		if o.Driver != dialect.SQLite3.Name {
			if o.User == "" {
				missing = append(missing, "user")
			}
			if o.Password == "" {
				missing = append(missing, "password")
			}
		}
		if o.Database == "" {
			missing = append(missing, "database")
		}
		if len(missing) > 0 {
			return nil, rdb.Newf(rdb.ErrKindConfiguration, "missing required option: %s", strings.Join(missing, ", "))
		}
	}

	d, err := dialect.Get(o.Driver)
	if err != nil {
		return nil, err
	}
	if o.Port == 0 {
		o.Port = d.DefaultPort
	}
	return d, nil
}

func (o *Options) dsn(d *dialect.Dialect) (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}
	dsn, err := d.BuildDSN(&dialect.ConnParams{
		Host:           o.Host,
		Port:           o.Port,
		User:           o.User,
		Password:       o.Password,
		Database:       o.Database,
		Charset:        o.Charset,
		Autocommit:     *o.Autocommit,
		ConnectTimeout: o.ConnectTimeout,
	})
	if err != nil {
		return "", rdb.Wrap(rdb.ErrKindConfiguration, "build dsn failed", err)
	}
	return dsn, nil
}
