package query

import "fmt"

// MatchQuery 包含匹配，LIKE %value%
type MatchQuery struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (q *MatchQuery) Type() QueryType {
	return QueryTypeMatch
}

func (q *MatchQuery) ToSQL(quote Quoter) (string, []any, error) {
	col, err := column(quote, q.Field)
	if err != nil {
		return "", nil, err
	}
	return col + " LIKE ?", []any{"%" + fmt.Sprintf("%v", q.Value) + "%"}, nil
}
