package decoder

import (
	"strings"

	"github.com/hatlonely/goorm/cfg/storage"
)

// ApplyEnv 把 PREFIX_DATABASE_HOST=db 形式的环境变量覆盖到 storage 上，
// 路径按 _ 切分，和已有 key 大小写不敏感匹配
func ApplyEnv(s *storage.MapStorage, prefix string, environ []string) {
	if prefix == "" {
		return
	}
	head := strings.ToUpper(prefix) + "_"
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(key), head) {
			continue
		}
		path := strings.Split(strings.ToLower(key[len(head):]), "_")
		if len(path) == 0 || path[0] == "" {
			continue
		}
		s.Set(path, value)
	}
}
