package orm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hatlonely/goorm/rdb"
)

// Record 一行数据，键只能是 Schema 声明过的字段。
// Record 不是并发安全的，不要在多个 goroutine 之间共享同一条记录
type Record struct {
	model    *Model
	values   map[string]any
	resolved map[string]bool // 已经解析过默认值的字段，生成函数不会被再次调用
}

func (r *Record) Model() *Model {
	return r.model
}

func (r *Record) Get(name string) any {
	return r.values[name]
}

func (r *Record) Lookup(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set 未声明的字段返回 InvalidArgument 错误，值按字段类型转换
func (r *Record) Set(name string, v any) error {
	f := r.model.schema.Field(name)
	if f == nil {
		return rdb.Newf(rdb.ErrKindInvalidArgument, "%s has no field %s", r.model.schema.name, name)
	}
	cv, err := coerce(f, v)
	if err != nil {
		return err
	}
	r.values[name] = cv
	return nil
}

// Values 当前值的副本
func (r *Record) Values() map[string]any {
	values := make(map[string]any, len(r.values))
	for k, v := range r.values {
		values[k] = v
	}
	return values
}

func (r *Record) PrimaryKey() any {
	return r.values[r.model.schema.pk.name]
}

// ValueOrDefault 字段有非 nil 的值时直接返回，否则解析默认值并写回记录，没有默认值时返回 nil
func (r *Record) ValueOrDefault(name string) (any, error) {
	f := r.model.schema.Field(name)
	if f == nil {
		return nil, rdb.Newf(rdb.ErrKindInvalidArgument, "%s has no field %s", r.model.schema.name, name)
	}
	if v := r.values[name]; v != nil || r.resolved[name] {
		return v, nil
	}

	r.resolved[name] = true
	def, ok := f.resolveDefault()
	if !ok {
		return nil, nil
	}
	v, err := coerce(f, def)
	if err != nil {
		return nil, err
	}
	r.values[name] = v
	r.model.logger.Debug("default value resolved", "field", name, "value", v)
	return v, nil
}

// Save 按 普通字段..., 主键 的顺序解析默认值并插入
func (r *Record) Save(ctx context.Context) (int64, error) {
	s := r.model.schema
	args := make([]any, 0, len(s.regular)+1)
	for _, f := range s.regular {
		v, err := r.ValueOrDefault(f.name)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}
	pk, err := r.ValueOrDefault(s.pk.name)
	if err != nil {
		return 0, err
	}
	args = append(args, pk)

	affected, err := r.model.exec.Execute(ctx, s.insertSQL, args)
	if err != nil {
		return 0, err
	}
	return affected, r.model.checkAffected(ctx, "save", pk, affected)
}

// Update 使用当前值更新普通字段，不解析默认值
func (r *Record) Update(ctx context.Context) (int64, error) {
	s := r.model.schema
	if s.updateSQL == "" {
		return 0, rdb.Newf(rdb.ErrKindInvalidArgument, "%s has no field to update", s.name)
	}
	args := make([]any, 0, len(s.regular)+1)
	for _, f := range s.regular {
		args = append(args, r.values[f.name])
	}
	pk := r.PrimaryKey()
	args = append(args, pk)

	affected, err := r.model.exec.Execute(ctx, s.updateSQL, args)
	if err != nil {
		return 0, err
	}
	return affected, r.model.checkAffected(ctx, "update", pk, affected)
}

// Remove 按主键删除，内存中的记录保持不变
func (r *Record) Remove(ctx context.Context) (int64, error) {
	pk := r.PrimaryKey()
	affected, err := r.model.exec.Execute(ctx, r.model.schema.deleteSQL, []any{pk})
	if err != nil {
		return 0, err
	}
	return affected, r.model.checkAffected(ctx, "remove", pk, affected)
}

// Scan 按 rdb tag 把记录写入结构体，记录中没有的字段保持不变
func (r *Record) Scan(dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return rdb.New(rdb.ErrKindInvalidArgument, "dest must be a non-nil pointer to struct")
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, ok := parseTag(sf)
		if !ok {
			continue
		}
		v, exists := r.values[name]
		if !exists {
			continue
		}
		if err := setFieldValue(rv.Field(i), v); err != nil {
			return rdb.Wrap(rdb.ErrKindInvalidArgument, fmt.Sprintf("scan field %s", name), err)
		}
	}
	return nil
}

func (r *Record) String() string {
	return fmt.Sprintf("%s%v", r.model.schema.name, r.values)
}
