package query

import (
	"strings"

	"github.com/pkg/errors"
)

// TermQuery 精确匹配查询，Value 为 nil 时渲染成 IS NULL
type TermQuery struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (q *TermQuery) Type() QueryType {
	return QueryTypeTerm
}

func (q *TermQuery) ToSQL(quote Quoter) (string, []any, error) {
	col, err := column(quote, q.Field)
	if err != nil {
		return "", nil, err
	}
	if q.Value == nil {
		return col + " IS NULL", nil, nil
	}
	return col + " = ?", []any{q.Value}, nil
}

// TermsQuery 多值匹配查询
type TermsQuery struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
}

func (q *TermsQuery) Type() QueryType {
	return QueryTypeTerms
}

func (q *TermsQuery) ToSQL(quote Quoter) (string, []any, error) {
	col, err := column(quote, q.Field)
	if err != nil {
		return "", nil, err
	}
	if len(q.Values) == 0 {
		return "", nil, errors.Errorf("terms query on %s has no values", q.Field)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Values)), ", ")
	args := make([]any, len(q.Values))
	copy(args, q.Values)
	return col + " IN (" + placeholders + ")", args, nil
}
