package dialect

import (
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// scanPlaceholders 找出引号之外的 ? 占位符，bind 不为空时用 bind(序号) 替换，
// 'it''s' 这样的转义通过两次切换自然处理，反引号内不处理反斜杠
func scanPlaceholders(query string, bind func(n int) string) (string, int) {
	var sb strings.Builder
	if bind != nil {
		sb.Grow(len(query) + 8)
	}
	var quote byte
	n := 0
	last := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == '\\' && quote != '`' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
			if bind != nil {
				sb.WriteString(query[last:i])
				sb.WriteString(bind(n))
				last = i + 1
			}
		}
	}
	if bind == nil || n == 0 {
		return query, n
	}
	sb.WriteString(query[last:])
	return sb.String(), n
}

// CountPlaceholders 统计引号之外的 ? 个数
func CountPlaceholders(query string) int {
	_, n := scanPlaceholders(query, nil)
	return n
}

// Rebind 把引号之外的 ? 占位符转换成驱动原生的占位符，字符串字面量里的 ? 保持不变
func (d *Dialect) Rebind(query string) string {
	var bind func(n int) string
	switch sqlx.BindType(d.DriverName) {
	case sqlx.DOLLAR:
		bind = func(n int) string { return "$" + strconv.Itoa(n) }
	case sqlx.NAMED:
		bind = func(n int) string { return ":arg" + strconv.Itoa(n) }
	case sqlx.AT:
		bind = func(n int) string { return "@p" + strconv.Itoa(n) }
	default:
		return query
	}
	out, _ := scanPlaceholders(query, bind)
	return out
}
