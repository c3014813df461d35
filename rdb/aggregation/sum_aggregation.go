package aggregation

import (
	"github.com/hatlonely/goorm/rdb/query"
)

// SumAggregation 求和聚合
type SumAggregation struct {
	MetricAggregation
}

func (a *SumAggregation) Type() AggregationType {
	return AggTypeSum
}

func (a *SumAggregation) Expr(quote query.Quoter) (string, error) {
	return a.expr("SUM", quote)
}

func (a *SumAggregation) ToSQL(quote query.Quoter) (string, error) {
	expr, err := a.Expr(quote)
	if err != nil {
		return "", err
	}
	return a.alias(expr, quote)
}
