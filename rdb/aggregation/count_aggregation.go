package aggregation

import (
	"github.com/hatlonely/goorm/rdb/query"
)

// CountAggregation 计数聚合，Field 为空时统计行数，否则统计非 NULL 值
type CountAggregation struct {
	MetricAggregation
	Distinct bool
}

func (a *CountAggregation) Type() AggregationType {
	return AggTypeCount
}

func (a *CountAggregation) WithDistinct() *CountAggregation {
	a.Distinct = true
	return a
}

func (a *CountAggregation) Expr(quote query.Quoter) (string, error) {
	if a.Field == "" {
		return "COUNT(*)", nil
	}
	if a.Distinct {
		return "COUNT(DISTINCT " + quoteOf(quote)(a.Field) + ")", nil
	}
	return a.expr("COUNT", quote)
}

func (a *CountAggregation) ToSQL(quote query.Quoter) (string, error) {
	expr, err := a.Expr(quote)
	if err != nil {
		return "", err
	}
	return a.alias(expr, quote)
}
