package aggregation

import (
	"fmt"
	"strconv"
)

// Result 聚合结果，按聚合名取值
type Result struct {
	results map[string]any
}

func NewResult(row map[string]any) *Result {
	r := &Result{results: map[string]any{}}
	for k, v := range row {
		r.results[k] = v
	}
	return r
}

func (r *Result) Get(aggName string) any {
	return r.results[aggName]
}

// GetValue 数值结果，mysql 的 DECIMAL 以字符串返回，这里统一转成 float64，NULL 为 0
func (r *Result) GetValue(aggName string) float64 {
	switch v := r.results[aggName].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	}
	return 0
}

func (r *Result) GetCount(aggName string) int64 {
	switch v := r.results[aggName].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func (r *Result) String() string {
	return fmt.Sprintf("%v", r.results)
}
