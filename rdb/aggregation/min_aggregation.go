package aggregation

import (
	"github.com/hatlonely/goorm/rdb/query"
)

// MinAggregation 最小值聚合
type MinAggregation struct {
	MetricAggregation
}

func (a *MinAggregation) Type() AggregationType {
	return AggTypeMin
}

func (a *MinAggregation) Expr(quote query.Quoter) (string, error) {
	return a.expr("MIN", quote)
}

func (a *MinAggregation) ToSQL(quote query.Quoter) (string, error) {
	expr, err := a.Expr(quote)
	if err != nil {
		return "", err
	}
	return a.alias(expr, quote)
}
