package orm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/hatlonely/goorm/rdb/executor"
	"github.com/hatlonely/goorm/rdb/pool"
)

func TestSQLiteRoundTrip(t *testing.T) {
	Convey("测试 sqlite3 读写", t, func() {
		ctx := context.Background()
		p, err := pool.NewPoolWithOptions(ctx, &pool.Options{
			Driver:      "sqlite3",
			Database:    filepath.Join(t.TempDir(), "orm.db"),
			MaxPoolSize: 4,
		})
		So(err, ShouldBeNil)
		defer p.Shutdown(ctx)

		exec, err := executor.NewExecutorWithOptions(p, &executor.Options{Registerer: prometheus.NewRegistry()})
		So(err, ShouldBeNil)

		s, err := Compile("users", []*Field{
			NewIntegerField("id", PrimaryKey()),
			NewStringField("name", Default("anon")),
			NewBooleanField("active", Default(true)),
			NewFloatField("score"),
		})
		So(err, ShouldBeNil)
		m := NewModel(s, exec, WithStrict(true))
		So(m.Schema().SelectSQL(), ShouldEqual, `SELECT "id", "name", "active", "score" FROM "users"`)

		_, err = exec.Execute(ctx, m.Schema().CreateTableSQL(), nil)
		So(err, ShouldBeNil)

		for i, name := range []string{"alice", "bob", "carol"} {
			r, err := m.New(map[string]any{"id": i + 1, "name": name, "score": float64(i) + 0.5})
			So(err, ShouldBeNil)
			n, err := r.Save(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		}

		Convey("保存后读出的值相同", func() {
			r, err := m.New(map[string]any{"id": 10, "name": "dave", "active": false, "score": 1.25})
			So(err, ShouldBeNil)
			_, err = r.Save(ctx)
			So(err, ShouldBeNil)

			found, err := m.Find(ctx, 10)
			So(err, ShouldBeNil)
			So(found, ShouldNotBeNil)
			So(found.Values(), ShouldResemble, r.Values())

			missing, err := m.Find(ctx, 404)
			So(err, ShouldBeNil)
			So(missing, ShouldBeNil)
		})

		Convey("分页和计数", func() {
			records, err := m.FindAll(ctx, OrderBy(`"id"`), Limit(2))
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[0].Get("name"), ShouldEqual, "alice")

			records, err = m.FindAll(ctx, OrderBy(`"id"`), Limit(1, 5))
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[0].Get("name"), ShouldEqual, "bob")

			n, err := m.FindNumber(ctx, "COUNT(*)", Where(`"score" > ?`, 1))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, int64(2))
		})

		Convey("更新和删除", func() {
			r, err := m.Find(ctx, 2)
			So(err, ShouldBeNil)
			So(r.Set("name", "robert"), ShouldBeNil)
			n, err := r.Update(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			again, _ := m.Find(ctx, 2)
			So(again.Get("name"), ShouldEqual, "robert")
			So(again.Get("active"), ShouldEqual, true)

			n, err = r.Remove(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			gone, _ := m.Find(ctx, 2)
			So(gone, ShouldBeNil)

			_, err = r.Remove(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}
