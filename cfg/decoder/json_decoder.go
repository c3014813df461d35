package decoder

import (
	"bytes"
	"encoding/json"

	"github.com/hatlonely/goorm/cfg/storage"
	"github.com/pkg/errors"
)

type JsonDecoder struct{}

func (j *JsonDecoder) Decode(data []byte) (storage.Storage, error) {
	var result map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	// 保留整数精度，转换到 int 字段时再解析
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to decode json")
	}
	return storage.NewMapStorage(normalizeNumbers(result)), nil
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	}
	return v
}
