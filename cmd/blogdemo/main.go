package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/hatlonely/goorm/cfg"
	"github.com/hatlonely/goorm/log"
	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb/aggregation"
	"github.com/hatlonely/goorm/rdb/executor"
	"github.com/hatlonely/goorm/rdb/orm"
	"github.com/hatlonely/goorm/rdb/pool"
	"github.com/hatlonely/goorm/rdb/query"
	"github.com/hatlonely/goorm/uid"
)

type Options struct {
	Log      *log.Options      `cfg:"log"`
	Database *pool.Options     `cfg:"database" validate:"required"`
	Executor *executor.Options `cfg:"executor"`
	ID       *uid.Options      `cfg:"id"`
}

func main() {
	configPath := flag.String("config", "cmd/blogdemo/blogdemo.yaml", "config file, .yaml .json .toml or .ini")
	envPrefix := flag.String("env-prefix", "BLOGDEMO", "environment variables with this prefix override the config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "blogdemo: %+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, envPrefix string) error {
	c, err := cfg.NewConfig(configPath, cfg.WithEnvPrefix(envPrefix))
	if err != nil {
		return err
	}
	options := &Options{}
	if err := c.ConvertTo(options); err != nil {
		return err
	}
	if options.Executor == nil {
		options.Executor = &executor.Options{}
	}
	if options.ID == nil {
		options.ID = &uid.Options{Type: "nextid"}
	}

	l := log.Default()
	if options.Log != nil {
		if l, err = log.NewLoggerWithOptions(options.Log); err != nil {
			return err
		}
		log.SetDefault(l)
	}

	options.Database.Logger = l
	p, err := pool.NewPoolWithOptions(ctx, options.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Shutdown(context.Background()); err != nil {
			l.Error("shutdown pool failed", "error", err)
		}
	}()

	options.Executor.Logger = l
	exec, err := executor.NewExecutorWithOptions(p, options.Executor)
	if err != nil {
		return err
	}

	nextID, err := uid.NewProducerWithOptions(options.ID)
	if err != nil {
		return err
	}
	models, err := registerModels(exec, nextID, l)
	if err != nil {
		return err
	}

	return demo(ctx, exec, models, l)
}

type blogModels struct {
	users    *orm.Model
	blogs    *orm.Model
	comments *orm.Model
}

func now() any {
	return float64(time.Now().UnixNano()) / 1e9
}

func registerModels(exec *executor.Executor, nextID func() any, l logger.Logger) (*blogModels, error) {
	id := func() *orm.Field {
		return orm.NewStringField("id", orm.PrimaryKey(), orm.Default(nextID), orm.DDL("varchar(50)"))
	}

	users, err := orm.Register("User", []*orm.Field{
		id(),
		orm.NewStringField("email", orm.DDL("varchar(50)")),
		orm.NewStringField("passwd", orm.DDL("varchar(50)")),
		orm.NewBooleanField("admin"),
		orm.NewStringField("name", orm.DDL("varchar(50)")),
		orm.NewStringField("image", orm.DDL("varchar(500)")),
		orm.NewFloatField("created_at", orm.Default(now)),
	}, orm.Table("users"))
	if err != nil {
		return nil, err
	}

	blogs, err := orm.Register("Blog", []*orm.Field{
		id(),
		orm.NewStringField("user_id", orm.DDL("varchar(50)")),
		orm.NewStringField("user_name", orm.DDL("varchar(50)")),
		orm.NewStringField("user_image", orm.DDL("varchar(500)")),
		orm.NewStringField("name", orm.DDL("varchar(50)")),
		orm.NewStringField("summary", orm.DDL("varchar(200)")),
		orm.NewTextField("content"),
		orm.NewFloatField("created_at", orm.Default(now)),
	}, orm.Table("blogs"))
	if err != nil {
		return nil, err
	}

	comments, err := orm.Register("Comment", []*orm.Field{
		id(),
		orm.NewStringField("blog_id", orm.DDL("varchar(50)")),
		orm.NewStringField("user_id", orm.DDL("varchar(50)")),
		orm.NewStringField("user_name", orm.DDL("varchar(50)")),
		orm.NewStringField("user_image", orm.DDL("varchar(500)")),
		orm.NewTextField("content"),
		orm.NewFloatField("created_at", orm.Default(now)),
	}, orm.Table("comments"))
	if err != nil {
		return nil, err
	}

	return &blogModels{
		users:    orm.NewModel(users, exec, orm.WithLogger(l)),
		blogs:    orm.NewModel(blogs, exec, orm.WithLogger(l)),
		comments: orm.NewModel(comments, exec, orm.WithLogger(l)),
	}, nil
}

func demo(ctx context.Context, exec *executor.Executor, m *blogModels, l logger.Logger) error {
	for _, model := range []*orm.Model{m.users, m.blogs, m.comments} {
		if _, err := exec.Execute(ctx, model.Schema().CreateTableSQL(), nil); err != nil {
			return err
		}
	}

	user, err := m.users.New(map[string]any{
		"email":  "alice@example.com",
		"passwd": "5f4dcc3b5aa765d61d8327deb882cf99",
		"name":   "alice",
		"image":  "about:blank",
	})
	if err != nil {
		return err
	}
	if _, err := user.Save(ctx); err != nil {
		return err
	}

	blog, err := m.blogs.New(map[string]any{
		"user_id":    user.PrimaryKey(),
		"user_name":  user.Get("name"),
		"user_image": user.Get("image"),
		"name":       "Hello goorm",
		"summary":    "a minimal pooled ORM",
		"content":    "schemas are compiled once and shared by every record",
	})
	if err != nil {
		return err
	}
	if _, err := blog.Save(ctx); err != nil {
		return err
	}

	for _, content := range []string{"first!", "nice post", "+1"} {
		comment, err := m.comments.New(map[string]any{
			"blog_id":   blog.PrimaryKey(),
			"user_id":   user.PrimaryKey(),
			"user_name": user.Get("name"),
			"content":   content,
		})
		if err != nil {
			return err
		}
		if _, err := comment.Save(ctx); err != nil {
			return err
		}
	}

	found, err := m.blogs.Find(ctx, blog.PrimaryKey())
	if err != nil {
		return err
	}
	if found == nil {
		return errors.Errorf("blog %v not found after save", blog.PrimaryKey())
	}
	if err := found.Set("summary", "a minimal pooled ORM with a strict mode"); err != nil {
		return err
	}
	if _, err := found.Update(ctx); err != nil {
		return err
	}

	comments, err := m.comments.FindAll(ctx,
		orm.WhereQuery(query.Term("blog_id", blog.PrimaryKey())),
		orm.OrderBy(`created_at DESC`),
		orm.Limit(0, 2),
	)
	if err != nil {
		return err
	}
	total, err := m.comments.Aggregate(ctx, aggregation.Count("total", ""), orm.Where("blog_id=?", blog.PrimaryKey()))
	if err != nil {
		return err
	}
	l.InfoContext(ctx, "blog loaded",
		"blog", found.Get("name"),
		"summary", found.Get("summary"),
		"latestComments", len(comments),
		"totalComments", total,
	)

	if len(comments) == 0 {
		return errors.New("no comments found")
	}
	if _, err := comments[len(comments)-1].Remove(ctx); err != nil {
		return err
	}
	remaining, err := m.comments.FindNumber(ctx, "COUNT(*)", orm.Where("blog_id=?", blog.PrimaryKey()))
	if err != nil {
		return err
	}
	l.InfoContext(ctx, "comment removed", "remainingComments", remaining)
	return nil
}
