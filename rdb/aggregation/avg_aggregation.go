package aggregation

import (
	"github.com/hatlonely/goorm/rdb/query"
)

// AvgAggregation 平均值聚合
type AvgAggregation struct {
	MetricAggregation
}

func (a *AvgAggregation) Type() AggregationType {
	return AggTypeAvg
}

func (a *AvgAggregation) Expr(quote query.Quoter) (string, error) {
	return a.expr("AVG", quote)
}

func (a *AvgAggregation) ToSQL(quote query.Quoter) (string, error) {
	expr, err := a.Expr(quote)
	if err != nil {
		return "", err
	}
	return a.alias(expr, quote)
}
