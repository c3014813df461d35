package orm

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/aggregation"
	"github.com/hatlonely/goorm/rdb/dialect"
	"github.com/hatlonely/goorm/rdb/query"
)

type statement struct {
	sql   string
	args  []any
	limit int
}

// fakeExecutor 记录生成的 SQL 和绑定参数
type fakeExecutor struct {
	statements []statement
	rows       []map[string]any
	affected   int64
	err        error
}

func (e *fakeExecutor) Query(ctx context.Context, query string, args []any, limit int) ([]map[string]any, error) {
	e.statements = append(e.statements, statement{sql: query, args: args, limit: limit})
	if e.err != nil {
		return nil, e.err
	}
	return e.rows, nil
}

func (e *fakeExecutor) Execute(ctx context.Context, query string, args []any) (int64, error) {
	e.statements = append(e.statements, statement{sql: query, args: args})
	if e.err != nil {
		return 0, e.err
	}
	return e.affected, nil
}

func (e *fakeExecutor) last() statement {
	if len(e.statements) == 0 {
		return statement{}
	}
	return e.statements[len(e.statements)-1]
}

type postgresExecutor struct {
	fakeExecutor
}

func (e *postgresExecutor) Dialect() *dialect.Dialect {
	return dialect.Postgres
}

type user struct {
	ID     int64  `rdb:"id,omitempty"`
	Name   string `rdb:"name"`
	Active bool   `rdb:"active"`
	Note   string `rdb:"-"`
}

func newUserModel(exec Executor, buf *bytes.Buffer, opts ...ModelOption) (*Model, *int) {
	calls := 0
	nextID := func() any {
		calls++
		return int64(100 + calls)
	}
	s, err := Compile("users", userFields(Default(nextID)))
	So(err, ShouldBeNil)

	l, err := logger.NewSLogWithWriter(buf, &logger.Options{Level: "debug", Format: "json"})
	So(err, ShouldBeNil)
	return NewModel(s, exec, append([]ModelOption{WithLogger(l)}, opts...)...), &calls
}

func TestRecordSave(t *testing.T) {
	Convey("测试保存记录", t, func() {
		ctx := context.Background()
		buf := &bytes.Buffer{}
		exec := &fakeExecutor{affected: 1}
		m, calls := newUserModel(exec, buf)

		Convey("普通字段在前，主键在后", func() {
			r, err := m.New(map[string]any{"name": "alice"})
			So(err, ShouldBeNil)

			n, err := r.Save(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(exec.last().sql, ShouldEqual, "INSERT INTO `users` (`name`, `active`, `id`) VALUES (?, ?, ?)")
			So(exec.last().args, ShouldResemble, []any{"alice", true, int64(101)})
			So(buf.String(), ShouldNotContainSubstring, "unexpected affected rows")
			So(r.PrimaryKey(), ShouldEqual, int64(101))
			So(*calls, ShouldEqual, 1)
		})

		Convey("影响行数为 0 时只记录 warn", func() {
			exec.affected = 0
			r, _ := m.New(map[string]any{"name": "alice"})
			n, err := r.Save(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
			So(buf.String(), ShouldContainSubstring, "unexpected affected rows")
			So(buf.String(), ShouldContainSubstring, `"level":"WARN"`)
		})

		Convey("严格模式", func() {
			exec.affected = 0
			strict, _ := newUserModel(exec, buf, WithStrict(true))
			r, _ := strict.New(map[string]any{"name": "alice"})
			n, err := r.Save(ctx)
			So(rdb.IsAffectedRows(err), ShouldBeTrue)
			So(n, ShouldEqual, 0)
		})

		Convey("执行错误原样返回", func() {
			cause := rdb.Wrap(rdb.ErrKindDatabaseExecution, "execute statement failed", errors.New("duplicate entry"))
			exec.err = cause
			r, _ := m.New(map[string]any{"name": "alice", "id": 1})
			_, err := r.Save(ctx)
			So(err, ShouldEqual, cause)
		})

		Convey("默认值", func() {
			r, _ := m.New(nil)
			_, err := r.Save(ctx)
			So(err, ShouldBeNil)
			So(exec.last().args, ShouldResemble, []any{"anon", true, int64(101)})
		})
	})
}

func TestValueOrDefault(t *testing.T) {
	Convey("测试默认值解析", t, func() {
		exec := &fakeExecutor{affected: 1}
		m, calls := newUserModel(exec, &bytes.Buffer{})

		Convey("生成函数每条记录最多调用一次", func() {
			r, _ := m.New(nil)
			v1, err := r.ValueOrDefault("id")
			So(err, ShouldBeNil)
			v2, err := r.ValueOrDefault("id")
			So(err, ShouldBeNil)
			So(v1, ShouldEqual, v2)
			So(*calls, ShouldEqual, 1)

			_, err = r.Save(context.Background())
			So(err, ShouldBeNil)
			So(*calls, ShouldEqual, 1)
			So(exec.last().args[2], ShouldEqual, v1)

			other, _ := m.New(nil)
			v3, _ := other.ValueOrDefault("id")
			So(v3, ShouldNotEqual, v1)
			So(*calls, ShouldEqual, 2)
		})

		Convey("已有值时不解析", func() {
			r, _ := m.New(map[string]any{"id": 7, "active": false})
			v, _ := r.ValueOrDefault("id")
			So(v, ShouldEqual, int64(7))
			v, _ = r.ValueOrDefault("active")
			So(v, ShouldEqual, false)
			So(*calls, ShouldEqual, 0)
		})

		Convey("nil 视为未设置", func() {
			r, _ := m.New(map[string]any{"name": nil})
			v, _ := r.ValueOrDefault("name")
			So(v, ShouldEqual, "anon")
			So(r.Get("name"), ShouldEqual, "anon")
		})

		Convey("没有默认值", func() {
			s, _ := Compile("notes", []*Field{NewIntegerField("id", PrimaryKey()), NewTextField("body")})
			r, _ := NewModel(s, exec).New(nil)
			v, err := r.ValueOrDefault("body")
			So(err, ShouldBeNil)
			So(v, ShouldBeNil)
			_, ok := r.Lookup("body")
			So(ok, ShouldBeFalse)
		})

		Convey("带类型的生成函数", func() {
			stamps := 0
			s, err := Compile("events", []*Field{
				NewIntegerField("id", PrimaryKey(), Default(func() int64 { return 42 })),
				NewStringField("tag", Default(func() string {
					stamps++
					return "tag-" + strconv.Itoa(stamps)
				})),
				NewFloatField("at", Default(func() float64 { return 1.5 })),
			})
			So(err, ShouldBeNil)
			r, _ := NewModel(s, exec).New(nil)

			v, err := r.ValueOrDefault("tag")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "tag-1")

			_, err = r.Save(context.Background())
			So(err, ShouldBeNil)
			So(exec.last().args, ShouldResemble, []any{"tag-1", 1.5, int64(42)})
			So(stamps, ShouldEqual, 1)
		})

		Convey("未声明的字段", func() {
			r, _ := m.New(nil)
			_, err := r.ValueOrDefault("email")
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
		})
	})
}

func TestRecordAccess(t *testing.T) {
	Convey("测试记录读写", t, func() {
		ctx := context.Background()
		exec := &fakeExecutor{affected: 1}
		m, _ := newUserModel(exec, &bytes.Buffer{})

		Convey("只能设置声明过的字段", func() {
			_, err := m.New(map[string]any{"email": "a@b.c"})
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)

			r, _ := m.New(nil)
			So(rdb.IsInvalidArgument(r.Set("email", "a@b.c")), ShouldBeTrue)
			So(rdb.IsInvalidArgument(r.Set("id", "abc")), ShouldBeTrue)
		})

		Convey("值按字段类型转换", func() {
			r, err := m.New(map[string]any{"id": int32(3), "name": []byte("bob"), "active": 1})
			So(err, ShouldBeNil)
			So(r.Values(), ShouldResemble, map[string]any{"id": int64(3), "name": "bob", "active": true})

			values := r.Values()
			values["name"] = "changed"
			So(r.Get("name"), ShouldEqual, "bob")
		})

		Convey("Update 和 Remove", func() {
			r, _ := m.New(map[string]any{"id": 3, "name": "bob", "active": true})
			So(r.Set("name", "robert"), ShouldBeNil)

			n, err := r.Update(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(exec.last().sql, ShouldEqual, "UPDATE `users` SET `name`=?, `active`=? WHERE `id`=?")
			So(exec.last().args, ShouldResemble, []any{"robert", true, int64(3)})

			n, err = r.Remove(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(exec.last().sql, ShouldEqual, "DELETE FROM `users` WHERE `id`=?")
			So(exec.last().args, ShouldResemble, []any{int64(3)})
			So(r.Get("name"), ShouldEqual, "robert")
		})

		Convey("Update 不解析默认值", func() {
			r, _ := m.New(map[string]any{"id": 3})
			_, err := r.Update(ctx)
			So(err, ShouldBeNil)
			So(exec.last().args, ShouldResemble, []any{nil, nil, int64(3)})
		})

		Convey("只有主键的表不能 Update", func() {
			s, _ := Compile("tags", []*Field{NewStringField("name", PrimaryKey())})
			r, _ := NewModel(s, exec).New(map[string]any{"name": "go"})
			_, err := r.Update(ctx)
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
		})

		Convey("结构体", func() {
			r, err := m.NewFromStruct(&user{Name: "carol", Note: "ignored"})
			So(err, ShouldBeNil)
			So(r.Values(), ShouldResemble, map[string]any{"name": "carol", "active": false})

			_, err = m.NewFromStruct(42)
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
			_, err = m.NewFromStruct((*user)(nil))
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)

			r, _ = m.New(map[string]any{"id": 9, "name": "dave", "active": true})
			var u user
			So(r.Scan(&u), ShouldBeNil)
			So(u, ShouldResemble, user{ID: 9, Name: "dave", Active: true})
			So(rdb.IsInvalidArgument(r.Scan(u)), ShouldBeTrue)
		})
	})
}

func TestFind(t *testing.T) {
	Convey("测试查询", t, func() {
		ctx := context.Background()
		exec := &fakeExecutor{}
		m, _ := newUserModel(exec, &bytes.Buffer{})

		Convey("Find 不存在时返回 nil", func() {
			r, err := m.Find(ctx, 1)
			So(err, ShouldBeNil)
			So(r, ShouldBeNil)
			So(exec.last().sql, ShouldEqual, "SELECT `id`, `name`, `active` FROM `users` WHERE `id`=?")
			So(exec.last().args, ShouldResemble, []any{int64(1)})
			So(exec.last().limit, ShouldEqual, 1)
		})

		Convey("Find 按列名映射并转换类型", func() {
			exec.rows = []map[string]any{{"id": int64(1), "name": []byte("alice"), "active": int64(1)}}
			r, err := m.Find(ctx, "1")
			So(err, ShouldBeNil)
			So(r.Values(), ShouldResemble, map[string]any{"id": int64(1), "name": "alice", "active": true})
		})

		Convey("Limit 一个参数", func() {
			_, err := m.FindAll(ctx, Limit(5))
			So(err, ShouldBeNil)
			So(exec.last().sql, ShouldEqual, "SELECT `id`, `name`, `active` FROM `users` LIMIT ?")
			So(exec.last().args, ShouldResemble, []any{5})
			So(exec.last().limit, ShouldEqual, 5)
		})

		Convey("Limit offset, count", func() {
			_, err := m.FindAll(ctx, Limit(10, 5))
			So(err, ShouldBeNil)
			So(exec.last().sql, ShouldEqual, "SELECT `id`, `name`, `active` FROM `users` LIMIT ?, ?")
			So(exec.last().args, ShouldResemble, []any{10, 5})
			So(exec.last().limit, ShouldEqual, 5)
		})

		Convey("Limit 参数形状非法时不执行语句", func() {
			for _, opt := range []FindOption{Limit(), Limit(1, 2, 3), Limit(-1), Limit(0, -5)} {
				_, err := m.FindAll(ctx, opt)
				So(rdb.IsInvalidArgument(err), ShouldBeTrue)
			}
			So(len(exec.statements), ShouldEqual, 0)
		})

		Convey("条件和排序", func() {
			exec.rows = []map[string]any{
				{"id": int64(1), "name": "alice", "active": true},
				{"id": int64(2), "name": "amy", "active": true},
			}
			records, err := m.FindAll(ctx,
				Where("`active`=?", true),
				WhereQuery(query.Prefix("name", "a")),
				OrderBy("`id` DESC"),
				Limit(2),
			)
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[1].Get("name"), ShouldEqual, "amy")
			So(exec.last().sql, ShouldEqual, "SELECT `id`, `name`, `active` FROM `users` WHERE (`active`=?) AND (`name` LIKE ?) ORDER BY `id` DESC LIMIT ?")
			So(exec.last().args, ShouldResemble, []any{true, "a%", 2})
			So(exec.last().limit, ShouldEqual, 2)
		})

		Convey("非法的查询条件", func() {
			_, err := m.FindAll(ctx, WhereQuery(query.Terms("id")))
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
		})

		Convey("FindNumber", func() {
			exec.rows = []map[string]any{{"_num_": int64(3)}}
			n, err := m.FindNumber(ctx, "COUNT(*)", Where("`active`=?", true))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(3))
			So(exec.last().sql, ShouldEqual, "SELECT COUNT(*) AS _num_ FROM `users` WHERE (`active`=?)")
			So(exec.last().args, ShouldResemble, []any{true})

			exec.rows = nil
			n, err = m.FindNumber(ctx, "MAX(`id`)")
			So(err, ShouldBeNil)
			So(n, ShouldBeNil)

			_, err = m.FindNumber(ctx, " ")
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
		})

		Convey("Aggregate", func() {
			exec.rows = []map[string]any{{"_num_": "2"}}
			n, err := m.Aggregate(ctx, aggregation.Count("named", "name"))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, "2")
			So(exec.last().sql, ShouldEqual, "SELECT COUNT(`name`) AS _num_ FROM `users`")

			exec.rows = []map[string]any{{"total": int64(4), "max_id": int64(9)}}
			res, err := m.AggregateAll(ctx, []aggregation.Aggregation{
				aggregation.Count("total", ""),
				aggregation.Max("max_id", "id"),
			}, WhereQuery(query.Term("active", true)))
			So(err, ShouldBeNil)
			So(res.GetCount("total"), ShouldEqual, 4)
			So(res.GetValue("max_id"), ShouldEqual, 9)
			So(exec.last().sql, ShouldEqual, "SELECT COUNT(*) AS `total`, MAX(`id`) AS `max_id` FROM `users` WHERE (`active` = ?)")

			_, err = m.AggregateAll(ctx, nil)
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
			_, err = m.Aggregate(ctx, aggregation.Sum("s", ""))
			So(rdb.IsInvalidArgument(err), ShouldBeTrue)
		})

		Convey("查询错误原样返回", func() {
			exec.err = errors.New("boom")
			_, err := m.FindAll(ctx)
			So(err, ShouldEqual, exec.err)
			_, err = m.Find(ctx, 1)
			So(err, ShouldEqual, exec.err)
		})
	})
}

func TestModelDialect(t *testing.T) {
	Convey("测试执行器方言", t, func() {
		ctx := context.Background()
		exec := &postgresExecutor{}
		s, _ := Compile("users", userFields())
		m := NewModel(s, exec)
		So(m.Schema().Dialect().Name, ShouldEqual, "postgres")
		So(s.Dialect().Name, ShouldEqual, "mysql")

		_, err := m.FindAll(ctx, Limit(10, 5))
		So(err, ShouldBeNil)
		So(exec.last().sql, ShouldEqual, `SELECT "id", "name", "active" FROM "users" LIMIT ? OFFSET ?`)
		So(exec.last().args, ShouldResemble, []any{5, 10})
	})
}
