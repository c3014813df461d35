package aggregation

import (
	"github.com/pkg/errors"

	"github.com/hatlonely/goorm/rdb/query"
)

// MetricAggregation 指标聚合基础结构
type MetricAggregation struct {
	AggName string
	Field   string
}

func (m *MetricAggregation) Name() string {
	return m.AggName
}

func quoteOf(quote query.Quoter) query.Quoter {
	if quote == nil {
		return query.NoQuote
	}
	return quote
}

func (m *MetricAggregation) expr(fn string, quote query.Quoter) (string, error) {
	if m.Field == "" {
		return "", errors.Errorf("%s aggregation %q has no field", fn, m.AggName)
	}
	return fn + "(" + quoteOf(quote)(m.Field) + ")", nil
}

func (m *MetricAggregation) alias(expr string, quote query.Quoter) (string, error) {
	if m.AggName == "" {
		return "", errors.New("aggregation name is empty")
	}
	return expr + " AS " + quoteOf(quote)(m.AggName), nil
}
