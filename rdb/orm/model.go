package orm

import (
	"context"
	"reflect"
	"strings"

	"github.com/hatlonely/goorm/log"
	"github.com/hatlonely/goorm/log/logger"
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/dialect"
)

// Executor 执行语句，*executor.Executor 实现了这个接口
type Executor interface {
	Query(ctx context.Context, query string, args []any, limit int) ([]map[string]any, error)
	Execute(ctx context.Context, query string, args []any) (int64, error)
}

type dialectProvider interface {
	Dialect() *dialect.Dialect
}

// Model 把 Schema 绑定到执行器上，提供 CRUD 入口
type Model struct {
	schema *Schema
	exec   Executor
	logger logger.Logger
	strict bool
}

type ModelOption func(*Model)

func WithLogger(l logger.Logger) ModelOption {
	return func(m *Model) {
		m.logger = l
	}
}

// WithStrict 影响行数不为 1 时返回 AffectedRows 错误，默认只记录 warn 日志
func WithStrict(strict bool) ModelOption {
	return func(m *Model) {
		m.strict = strict
	}
}

// NewModel 执行器的方言与 Schema 不同时，使用按执行器方言重新生成模板的 Schema 副本
func NewModel(schema *Schema, exec Executor, opts ...ModelOption) *Model {
	m := &Model{schema: schema, exec: exec}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	m.logger = m.logger.With("schema", schema.name)
	if p, ok := exec.(dialectProvider); ok {
		m.schema = schema.withDialect(p.Dialect())
	}
	return m
}

func (m *Model) Schema() *Schema {
	return m.schema
}

// New 构造未保存的记录，values 只能包含已声明的字段
func (m *Model) New(values map[string]any) (*Record, error) {
	r := m.newRecord()
	for name, v := range values {
		if err := r.Set(name, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewFromStruct 按 rdb tag 从结构体构造记录，tag 带 omitempty 的零值字段视为未设置
func (m *Model) NewFromStruct(v any) (*Record, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, rdb.New(rdb.ErrKindInvalidArgument, "struct is nil")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, rdb.Newf(rdb.ErrKindInvalidArgument, "expected struct, got %v", rv.Kind())
	}

	r := m.newRecord()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, omitempty, ok := parseTag(sf)
		if !ok {
			continue
		}
		fv := rv.Field(i)
		if omitempty && fv.IsZero() {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if err := r.Set(name, fv.Interface()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// parseTag 取 rdb tag，没有 tag 时使用小写的字段名
func parseTag(sf reflect.StructField) (name string, omitempty bool, ok bool) {
	tag, has := sf.Tag.Lookup("rdb")
	if tag == "-" {
		return "", false, false
	}
	if !has || tag == "" {
		return strings.ToLower(sf.Name), false, true
	}
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omitempty = true
		}
	}
	if parts[0] == "" {
		return strings.ToLower(sf.Name), omitempty, true
	}
	return parts[0], omitempty, true
}

func (m *Model) newRecord() *Record {
	return &Record{
		model:    m,
		values:   map[string]any{},
		resolved: map[string]bool{},
	}
}

// materialize 把一行查询结果按列名映射回字段
func (m *Model) materialize(row map[string]any) (*Record, error) {
	r := m.newRecord()
	for _, f := range m.schema.fields {
		v, ok := row[f.column]
		if !ok {
			continue
		}
		cv, err := coerce(f, v)
		if err != nil {
			return nil, rdb.Wrap(rdb.ErrKindDatabaseExecution, "unexpected column value", err)
		}
		r.values[f.name] = cv
	}
	return r, nil
}

// checkAffected 影响行数不为 1 时的处理
func (m *Model) checkAffected(ctx context.Context, operation string, pk any, affected int64) error {
	if affected == 1 {
		return nil
	}
	if m.strict {
		return rdb.Newf(rdb.ErrKindAffectedRows, "%s %s: expected 1 affected row, got %d", operation, m.schema.name, affected)
	}
	m.logger.WarnContext(ctx, "unexpected affected rows",
		"operation", operation,
		"table", m.schema.table,
		"primaryKey", pk,
		"affected", affected,
	)
	return nil
}
