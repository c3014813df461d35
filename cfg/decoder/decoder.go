package decoder

import (
	"path/filepath"
	"strings"

	"github.com/hatlonely/goorm/cfg/storage"
	"github.com/pkg/errors"
)

// Decoder 把原始配置内容解码为 Storage
type Decoder interface {
	Decode(data []byte) (storage.Storage, error)
}

// NewDecoder 按格式名创建解码器：yaml, json, toml, ini
func NewDecoder(format string) (Decoder, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return &YamlDecoder{}, nil
	case "json":
		return &JsonDecoder{}, nil
	case "toml":
		return &TomlDecoder{}, nil
	case "ini":
		return NewIniDecoder(), nil
	}
	return nil, errors.Errorf("unsupported config format %q", format)
}

// NewDecoderByFilename 按文件扩展名选择解码器
func NewDecoderByFilename(filename string) (Decoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	decoder, err := NewDecoder(ext)
	if err != nil {
		return nil, errors.WithMessagef(err, "file %s", filename)
	}
	return decoder, nil
}
