package decoder

import (
	"strconv"
	"strings"

	"github.com/hatlonely/goorm/cfg/storage"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// IniDecoder section 映射为一层嵌套，section 名里的点号会继续展开
type IniDecoder struct {
	AllowBoolKeys bool
}

func NewIniDecoder() *IniDecoder {
	return &IniDecoder{AllowBoolKeys: true}
}

func (i *IniDecoder) Decode(data []byte) (storage.Storage, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         i.AllowBoolKeys,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode ini")
	}

	result := storage.NewMapStorage(map[string]any{})
	for _, section := range file.Sections() {
		var prefix []string
		if name := section.Name(); name != ini.DefaultSection {
			prefix = strings.Split(name, ".")
		}
		for _, key := range section.Keys() {
			path := append(append([]string{}, prefix...), key.Name())
			result.Set(path, parseIniValue(key.String()))
		}
	}
	return result, nil
}

func parseIniValue(value string) any {
	if v, err := strconv.ParseBool(value); err == nil && (strings.EqualFold(value, "true") || strings.EqualFold(value, "false")) {
		return v
	}
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v
	}
	return value
}
