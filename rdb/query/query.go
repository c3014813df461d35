package query

import (
	"github.com/pkg/errors"
)

// QueryType 查询类型
type QueryType string

const (
	QueryTypeBool   QueryType = "bool"
	QueryTypeTerm   QueryType = "term"
	QueryTypeTerms  QueryType = "terms"
	QueryTypeMatch  QueryType = "match"
	QueryTypeRange  QueryType = "range"
	QueryTypeExists QueryType = "exists"
	QueryTypePrefix QueryType = "prefix"
)

// Quoter 把字段名转成方言的带引号标识符
type Quoter func(ident string) string

// Query 查询条件节点，渲染成带 ? 占位符的 WHERE 片段和按顺序绑定的参数
type Query interface {
	Type() QueryType
	ToSQL(quote Quoter) (string, []any, error)
}

// NoQuote 不加引号，用于字段名已经是合法标识符的场景
func NoQuote(ident string) string {
	return ident
}

func column(quote Quoter, field string) (string, error) {
	if field == "" {
		return "", errors.New("query field is empty")
	}
	if quote == nil {
		return field, nil
	}
	return quote(field), nil
}

func Term(field string, value any) *TermQuery {
	return &TermQuery{Field: field, Value: value}
}

func Terms(field string, values ...any) *TermsQuery {
	return &TermsQuery{Field: field, Values: values}
}

func Match(field string, value any) *MatchQuery {
	return &MatchQuery{Field: field, Value: value}
}

func Prefix(field string, value string) *PrefixQuery {
	return &PrefixQuery{Field: field, Value: value}
}

func Exists(field string) *ExistsQuery {
	return &ExistsQuery{Field: field}
}

func Range(field string) *RangeQuery {
	return &RangeQuery{Field: field}
}

func Bool() *BoolQuery {
	return &BoolQuery{}
}
