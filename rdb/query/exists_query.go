package query

// ExistsQuery 字段非空查询
type ExistsQuery struct {
	Field string `json:"field"`
}

func (q *ExistsQuery) Type() QueryType {
	return QueryTypeExists
}

func (q *ExistsQuery) ToSQL(quote Quoter) (string, []any, error) {
	col, err := column(quote, q.Field)
	if err != nil {
		return "", nil, err
	}
	return col + " IS NOT NULL", nil, nil
}
