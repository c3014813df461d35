package decoder

import (
	"github.com/hatlonely/goorm/cfg/storage"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type YamlDecoder struct{}

func (y *YamlDecoder) Decode(data []byte) (storage.Storage, error) {
	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "failed to decode yaml")
	}
	return storage.NewMapStorage(result), nil
}
