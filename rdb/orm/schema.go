package orm

import (
	"fmt"
	"strings"

	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/dialect"
	"github.com/hatlonely/goorm/rdb/query"
)

// Schema 由字段描述编译出的表结构和 SQL 模板，编译后只读，可以并发共享
type Schema struct {
	name    string
	table   string
	dialect *dialect.Dialect
	fields  []*Field // 声明顺序，包含主键
	pk      *Field
	regular []*Field
	byName  map[string]*Field

	selectSQL      string
	insertSQL      string
	updateSQL      string
	deleteSQL      string
	createTableSQL string
}

type schemaOptions struct {
	table   string
	dialect *dialect.Dialect
}

type SchemaOption func(*schemaOptions)

// Table 表名，默认与记录类型名相同
func Table(name string) SchemaOption {
	return func(o *schemaOptions) {
		o.table = name
	}
}

// WithDialect 标识符的引号和分页语法，默认 mysql
func WithDialect(d *dialect.Dialect) SchemaOption {
	return func(o *schemaOptions) {
		o.dialect = d
	}
}

// Compile 校验字段描述并生成 SQL 模板，相同的输入总是得到相同的模板
func Compile(name string, fields []*Field, opts ...SchemaOption) (*Schema, error) {
	o := &schemaOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.table == "" {
		o.table = name
	}
	if o.dialect == nil {
		o.dialect = dialect.MySQL
	}
	if name == "" {
		return nil, rdb.New(rdb.ErrKindSchema, "record type name is empty")
	}

	s := &Schema{
		name:    name,
		table:   o.table,
		dialect: o.dialect,
		byName:  map[string]*Field{},
	}
	columns := map[string]bool{}
	var pks []string
	for i, f := range fields {
		if f == nil {
			return nil, rdb.Newf(rdb.ErrKindSchema, "%s: field #%d is nil", name, i)
		}
		if f.name == "" {
			return nil, rdb.Newf(rdb.ErrKindSchema, "%s: field #%d has no name", name, i)
		}
		if _, ok := s.byName[f.name]; ok {
			return nil, rdb.Newf(rdb.ErrKindSchema, "%s: duplicate field %s", name, f.name)
		}
		if columns[f.column] {
			return nil, rdb.Newf(rdb.ErrKindSchema, "%s: duplicate column %s", name, f.column)
		}
		s.byName[f.name] = f
		columns[f.column] = true
		s.fields = append(s.fields, f)
		if f.primaryKey {
			pks = append(pks, f.name)
			s.pk = f
		} else {
			s.regular = append(s.regular, f)
		}
	}
	if len(pks) != 1 {
		return nil, rdb.Newf(rdb.ErrKindSchema, "%s: expected exactly one primary key, got %d %v", name, len(pks), pks)
	}

	s.compile()
	return s, nil
}

func (s *Schema) compile() {
	q := s.dialect.QuoteIdent
	table := q(s.table)
	pk := q(s.pk.column)

	regular := make([]string, len(s.regular))
	assigns := make([]string, len(s.regular))
	for i, f := range s.regular {
		regular[i] = q(f.column)
		assigns[i] = q(f.column) + "=?"
	}

	s.selectSQL = fmt.Sprintf("SELECT %s FROM %s", strings.Join(append([]string{pk}, regular...), ", "), table)
	s.insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(append(append([]string{}, regular...), pk), ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(s.regular)+1), ", "),
	)
	// 只有主键的表没有可更新的列
	if len(s.regular) > 0 {
		s.updateSQL = fmt.Sprintf("UPDATE %s SET %s WHERE %s=?", table, strings.Join(assigns, ", "), pk)
	}
	s.deleteSQL = fmt.Sprintf("DELETE FROM %s WHERE %s=?", table, pk)

	defs := []string{pk + " " + s.pk.sqlType + " NOT NULL PRIMARY KEY"}
	for _, f := range s.regular {
		defs = append(defs, q(f.column)+" "+f.sqlType)
	}
	s.createTableSQL = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
}

// withDialect 同一组字段按另一种方言重新生成模板
func (s *Schema) withDialect(d *dialect.Dialect) *Schema {
	if d == nil || d.Name == s.dialect.Name {
		return s
	}
	c := *s
	c.dialect = d
	c.compile()
	return &c
}

func (s *Schema) Name() string              { return s.name }
func (s *Schema) Table() string             { return s.table }
func (s *Schema) Dialect() *dialect.Dialect { return s.dialect }
func (s *Schema) PrimaryKey() string        { return s.pk.name }
func (s *Schema) PrimaryKeyField() *Field   { return s.pk }
func (s *Schema) SelectSQL() string         { return s.selectSQL }
func (s *Schema) InsertSQL() string         { return s.insertSQL }
func (s *Schema) UpdateSQL() string         { return s.updateSQL }
func (s *Schema) DeleteSQL() string         { return s.deleteSQL }
func (s *Schema) CreateTableSQL() string    { return s.createTableSQL }
func (s *Schema) Field(name string) *Field  { return s.byName[name] }

// Fields 普通字段名，按声明顺序，不含主键
func (s *Schema) Fields() []string {
	names := make([]string, len(s.regular))
	for i, f := range s.regular {
		names[i] = f.name
	}
	return names
}

// AllFields 全部字段描述，按声明顺序
func (s *Schema) AllFields() []*Field {
	return append([]*Field(nil), s.fields...)
}

// Quoter 查询条件里的字段名映射成带引号的列名，未声明的名字原样加引号
func (s *Schema) Quoter() query.Quoter {
	return func(ident string) string {
		if f, ok := s.byName[ident]; ok {
			ident = f.column
		}
		return s.dialect.QuoteIdent(ident)
	}
}

func (s *Schema) String() string {
	fields := make([]string, len(s.fields))
	for i, f := range s.fields {
		fields[i] = f.String()
	}
	return fmt.Sprintf("%s(%s) [%s]", s.name, s.table, strings.Join(fields, " "))
}
