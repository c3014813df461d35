package orm

import (
	"context"
	"strings"

	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/aggregation"
	"github.com/hatlonely/goorm/rdb/query"
)

type findOptions struct {
	where   []string
	args    []any
	queries []query.Query
	orderBy string
	limit   []int
	hasLim  bool
}

type FindOption func(*findOptions)

// Where 原生条件片段，使用 ? 占位符，多次调用之间为 AND
func Where(clause string, args ...any) FindOption {
	return func(o *findOptions) {
		o.where = append(o.where, clause)
		o.args = append(o.args, args...)
	}
}

// WhereQuery 使用查询 DSL 描述条件，字段名会映射成列名
func WhereQuery(q query.Query) FindOption {
	return func(o *findOptions) {
		o.queries = append(o.queries, q)
	}
}

func OrderBy(clause string) FindOption {
	return func(o *findOptions) {
		o.orderBy = clause
	}
}

// Limit 一个参数为最多返回的行数，两个参数为 offset, count
func Limit(n ...int) FindOption {
	return func(o *findOptions) {
		o.limit = n
		o.hasLim = true
	}
}

func (m *Model) whereClause(o *findOptions) (string, []any, error) {
	conditions := make([]string, 0, len(o.where)+len(o.queries))
	args := append([]any(nil), o.args...)
	for _, w := range o.where {
		conditions = append(conditions, "("+w+")")
	}
	for _, q := range o.queries {
		sql, qargs, err := q.ToSQL(m.schema.Quoter())
		if err != nil {
			return "", nil, rdb.Wrap(rdb.ErrKindInvalidArgument, "invalid query", err)
		}
		conditions = append(conditions, "("+sql+")")
		args = append(args, qargs...)
	}
	if len(conditions) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// Find 按主键查找，不存在时返回 nil, nil
func (m *Model) Find(ctx context.Context, pk any) (*Record, error) {
	key, err := coerce(m.schema.pk, pk)
	if err != nil {
		return nil, err
	}
	sql := m.schema.selectSQL + " WHERE " + m.schema.dialect.QuoteIdent(m.schema.pk.column) + "=?"
	rows, err := m.exec.Query(ctx, sql, []any{key}, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return m.materialize(rows[0])
}

// FindAll 参数在执行任何语句之前校验
func (m *Model) FindAll(ctx context.Context, opts ...FindOption) ([]*Record, error) {
	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}

	where, args, err := m.whereClause(o)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(m.schema.selectSQL)
	sb.WriteString(where)
	if o.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(o.orderBy)
	}

	maxRows := 0
	if o.hasLim {
		var clause string
		var limitArgs []any
		switch {
		case len(o.limit) == 1 && o.limit[0] >= 0:
			clause, limitArgs = m.schema.dialect.Limit(o.limit[0])
			maxRows = o.limit[0]
		case len(o.limit) == 2 && o.limit[0] >= 0 && o.limit[1] >= 0:
			clause, limitArgs = m.schema.dialect.Paginate(o.limit[0], o.limit[1])
			maxRows = o.limit[1]
		default:
			return nil, rdb.Newf(rdb.ErrKindInvalidArgument, "limit expects (count) or (offset, count), got %v", o.limit)
		}
		sb.WriteString(" ")
		sb.WriteString(clause)
		args = append(args, limitArgs...)
	}

	rows, err := m.exec.Query(ctx, sb.String(), args, maxRows)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r, err := m.materialize(row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

const numberAlias = "_num_"

// FindNumber 计算单个聚合表达式，如 COUNT(*)，没有结果行时返回 nil，只使用 Where 条件
func (m *Model) FindNumber(ctx context.Context, expr string, opts ...FindOption) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, rdb.New(rdb.ErrKindInvalidArgument, "expression is empty")
	}
	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}
	where, args, err := m.whereClause(o)
	if err != nil {
		return nil, err
	}

	sql := "SELECT " + expr + " AS " + numberAlias + " FROM " + m.schema.dialect.QuoteIdent(m.schema.table) + where
	rows, err := m.exec.Query(ctx, sql, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	v := rows[0][numberAlias]
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

// Aggregate 单个聚合，等价于用聚合表达式调用 FindNumber
func (m *Model) Aggregate(ctx context.Context, agg aggregation.Aggregation, opts ...FindOption) (any, error) {
	expr, err := agg.Expr(m.schema.Quoter())
	if err != nil {
		return nil, rdb.Wrap(rdb.ErrKindInvalidArgument, "invalid aggregation", err)
	}
	return m.FindNumber(ctx, expr, opts...)
}

// AggregateAll 多个聚合在同一条语句里计算
func (m *Model) AggregateAll(ctx context.Context, aggs []aggregation.Aggregation, opts ...FindOption) (*aggregation.Result, error) {
	if len(aggs) == 0 {
		return nil, rdb.New(rdb.ErrKindInvalidArgument, "no aggregations")
	}
	quote := m.schema.Quoter()
	parts := make([]string, len(aggs))
	for i, agg := range aggs {
		if agg.Name() == "" {
			return nil, rdb.New(rdb.ErrKindInvalidArgument, "aggregation name is empty")
		}
		// 字段名映射成列名，别名保持聚合名
		expr, err := agg.Expr(quote)
		if err != nil {
			return nil, rdb.Wrap(rdb.ErrKindInvalidArgument, "invalid aggregation", err)
		}
		parts[i] = expr + " AS " + m.schema.dialect.QuoteIdent(agg.Name())
	}

	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}
	where, args, err := m.whereClause(o)
	if err != nil {
		return nil, err
	}

	sql := "SELECT " + strings.Join(parts, ", ") + " FROM " + m.schema.dialect.QuoteIdent(m.schema.table) + where
	rows, err := m.exec.Query(ctx, sql, args, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return aggregation.NewResult(nil), nil
	}
	return aggregation.NewResult(rows[0]), nil
}
