package query

import (
	"fmt"
	"strings"
)

// BoolQuery 布尔查询，Must 和 Filter 在 SQL 中语义相同
type BoolQuery struct {
	Must           []Query `json:"must,omitempty"`
	Should         []Query `json:"should,omitempty"`
	MustNot        []Query `json:"must_not,omitempty"`
	Filter         []Query `json:"filter,omitempty"`
	MinShouldMatch *int    `json:"minimum_should_match,omitempty"`
}

func (q *BoolQuery) Type() QueryType {
	return QueryTypeBool
}

func (q *BoolQuery) WithMust(queries ...Query) *BoolQuery {
	q.Must = append(q.Must, queries...)
	return q
}

func (q *BoolQuery) WithShould(queries ...Query) *BoolQuery {
	q.Should = append(q.Should, queries...)
	return q
}

func (q *BoolQuery) WithMustNot(queries ...Query) *BoolQuery {
	q.MustNot = append(q.MustNot, queries...)
	return q
}

func (q *BoolQuery) WithFilter(queries ...Query) *BoolQuery {
	q.Filter = append(q.Filter, queries...)
	return q
}

func (q *BoolQuery) WithMinShouldMatch(n int) *BoolQuery {
	q.MinShouldMatch = &n
	return q
}

func renderAll(quote Quoter, queries []Query) ([]string, []any, error) {
	conditions := make([]string, 0, len(queries))
	var args []any
	for _, query := range queries {
		sql, queryArgs, err := query.ToSQL(quote)
		if err != nil {
			return nil, nil, err
		}
		conditions = append(conditions, sql)
		args = append(args, queryArgs...)
	}
	return conditions, args, nil
}

func (q *BoolQuery) ToSQL(quote Quoter) (string, []any, error) {
	var conditions []string
	var args []any

	for _, group := range [][]Query{q.Must, q.Filter} {
		if len(group) == 0 {
			continue
		}
		sqls, groupArgs, err := renderAll(quote, group)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, "("+strings.Join(sqls, " AND ")+")")
		args = append(args, groupArgs...)
	}

	if len(q.Should) > 0 {
		sqls, shouldArgs, err := renderAll(quote, q.Should)
		if err != nil {
			return "", nil, err
		}
		// MinShouldMatch 不为 1 时按满足的条件个数计数
		if q.MinShouldMatch != nil && *q.MinShouldMatch != 1 {
			cases := make([]string, len(sqls))
			for i, sql := range sqls {
				cases[i] = fmt.Sprintf("CASE WHEN (%s) THEN 1 ELSE 0 END", sql)
			}
			conditions = append(conditions, fmt.Sprintf("(%s) >= %d", strings.Join(cases, " + "), *q.MinShouldMatch))
		} else {
			conditions = append(conditions, "("+strings.Join(sqls, " OR ")+")")
		}
		args = append(args, shouldArgs...)
	}

	if len(q.MustNot) > 0 {
		sqls, mustNotArgs, err := renderAll(quote, q.MustNot)
		if err != nil {
			return "", nil, err
		}
		for i, sql := range sqls {
			sqls[i] = "NOT (" + sql + ")"
		}
		conditions = append(conditions, "("+strings.Join(sqls, " AND ")+")")
		args = append(args, mustNotArgs...)
	}

	if len(conditions) == 0 {
		return "1=1", nil, nil
	}
	return strings.Join(conditions, " AND "), args, nil
}
