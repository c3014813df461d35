package executor

import (
	"github.com/hatlonely/goorm/rdb"
	"github.com/hatlonely/goorm/rdb/dialect"
)

func checkArgs(query string, args []any) error {
	if n := dialect.CountPlaceholders(query); n != len(args) {
		return rdb.Newf(rdb.ErrKindArgumentCount, "statement has %d placeholders but %d arguments given", n, len(args))
	}
	return nil
}
