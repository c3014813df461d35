package aggregation

import (
	"github.com/hatlonely/goorm/rdb/query"
)

// MaxAggregation 最大值聚合
type MaxAggregation struct {
	MetricAggregation
}

func (a *MaxAggregation) Type() AggregationType {
	return AggTypeMax
}

func (a *MaxAggregation) Expr(quote query.Quoter) (string, error) {
	return a.expr("MAX", quote)
}

func (a *MaxAggregation) ToSQL(quote query.Quoter) (string, error) {
	expr, err := a.Expr(quote)
	if err != nil {
		return "", err
	}
	return a.alias(expr, quote)
}
