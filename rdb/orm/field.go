package orm

import (
	"fmt"
	"reflect"
)

// Kind 字段类型，决定默认的 SQL 类型和取值的类型转换
type Kind int

const (
	StringField Kind = iota
	BooleanField
	IntegerField
	FloatField
	TextField
)

func (k Kind) String() string {
	switch k {
	case StringField:
		return "StringField"
	case BooleanField:
		return "BooleanField"
	case IntegerField:
		return "IntegerField"
	case FloatField:
		return "FloatField"
	case TextField:
		return "TextField"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) defaultSQLType() string {
	switch k {
	case BooleanField:
		return "boolean"
	case IntegerField:
		return "bigint"
	case FloatField:
		return "real"
	case TextField:
		return "text"
	}
	return "varchar(100)"
}

// Field 字段描述，构造后不可修改
type Field struct {
	name       string
	column     string
	sqlType    string
	kind       Kind
	primaryKey bool
	hasDefault bool
	def        any
}

type FieldOption func(*Field)

func PrimaryKey() FieldOption {
	return func(f *Field) {
		f.primaryKey = true
	}
}

// Default 默认值，无参数单返回值的函数(如 time.Now)作为生成函数，每条记录最多调用一次
func Default(v any) FieldOption {
	return func(f *Field) {
		f.hasDefault = true
		f.def = v
	}
}

// Column 列名，默认与字段名相同
func Column(name string) FieldOption {
	return func(f *Field) {
		f.column = name
	}
}

// DDL 覆盖默认的 SQL 类型
func DDL(sqlType string) FieldOption {
	return func(f *Field) {
		f.sqlType = sqlType
	}
}

func NewField(kind Kind, name string, opts ...FieldOption) *Field {
	f := &Field{name: name, kind: kind}
	if kind == BooleanField {
		f.hasDefault = true
		f.def = false
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.column == "" {
		f.column = name
	}
	if f.sqlType == "" {
		f.sqlType = kind.defaultSQLType()
	}
	return f
}

func NewStringField(name string, opts ...FieldOption) *Field {
	return NewField(StringField, name, opts...)
}

// NewBooleanField 未指定默认值时默认为 false
func NewBooleanField(name string, opts ...FieldOption) *Field {
	return NewField(BooleanField, name, opts...)
}

func NewIntegerField(name string, opts ...FieldOption) *Field {
	return NewField(IntegerField, name, opts...)
}

func NewFloatField(name string, opts ...FieldOption) *Field {
	return NewField(FloatField, name, opts...)
}

func NewTextField(name string, opts ...FieldOption) *Field {
	return NewField(TextField, name, opts...)
}

func (f *Field) Name() string       { return f.name }
func (f *Field) Column() string     { return f.column }
func (f *Field) SQLType() string    { return f.sqlType }
func (f *Field) Kind() Kind         { return f.kind }
func (f *Field) IsPrimaryKey() bool { return f.primaryKey }
func (f *Field) HasDefault() bool   { return f.hasDefault }

// resolveDefault 返回默认值，无参数单返回值的函数视为生成函数，在这里被调用
func (f *Field) resolveDefault() (any, bool) {
	if !f.hasDefault {
		return nil, false
	}
	if producer, ok := f.def.(func() any); ok {
		return producer(), true
	}
	if rv := reflect.ValueOf(f.def); rv.Kind() == reflect.Func && !rv.IsNil() {
		if rt := rv.Type(); rt.NumIn() == 0 && rt.NumOut() == 1 {
			return rv.Call(nil)[0].Interface(), true
		}
	}
	return f.def, true
}

func (f *Field) String() string {
	return fmt.Sprintf("<%s, %s: %s>", f.kind, f.sqlType, f.column)
}
