package aggregation

import (
	"github.com/hatlonely/goorm/rdb/query"
)

// AggregationType 聚合类型
type AggregationType string

const (
	AggTypeSum   AggregationType = "sum"
	AggTypeAvg   AggregationType = "avg"
	AggTypeMax   AggregationType = "max"
	AggTypeMin   AggregationType = "min"
	AggTypeCount AggregationType = "count"
)

// Aggregation 单值聚合，渲染成 SELECT 列表中的一项
type Aggregation interface {
	Type() AggregationType
	Name() string
	// Expr 不带别名的表达式，如 SUM(`score`)
	Expr(quote query.Quoter) (string, error)
	// ToSQL 带别名，如 SUM(`score`) AS `total`
	ToSQL(quote query.Quoter) (string, error)
}

// Count field 为空时为 COUNT(*)
func Count(name, field string) *CountAggregation {
	return &CountAggregation{MetricAggregation: MetricAggregation{AggName: name, Field: field}}
}

func Sum(name, field string) *SumAggregation {
	return &SumAggregation{MetricAggregation{AggName: name, Field: field}}
}

func Avg(name, field string) *AvgAggregation {
	return &AvgAggregation{MetricAggregation{AggName: name, Field: field}}
}

func Max(name, field string) *MaxAggregation {
	return &MaxAggregation{MetricAggregation{AggName: name, Field: field}}
}

func Min(name, field string) *MinAggregation {
	return &MinAggregation{MetricAggregation{AggName: name, Field: field}}
}
