package query

// PrefixQuery 前缀查询
type PrefixQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (q *PrefixQuery) Type() QueryType {
	return QueryTypePrefix
}

func (q *PrefixQuery) ToSQL(quote Quoter) (string, []any, error) {
	col, err := column(quote, q.Field)
	if err != nil {
		return "", nil, err
	}
	return col + " LIKE ?", []any{q.Value + "%"}, nil
}
