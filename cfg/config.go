package cfg

import (
	"os"

	"github.com/hatlonely/goorm/cfg/decoder"
	"github.com/hatlonely/goorm/cfg/storage"
	"github.com/hatlonely/goorm/cfg/validator"
	"github.com/pkg/errors"
)

// Config 只读配置，优先级：文件 < 环境变量
type Config struct {
	storage storage.Storage
}

type Option func(*options)

type options struct {
	envPrefix string
	environ   []string
}

// WithEnvPrefix 使用 PREFIX_SECTION_KEY 形式的环境变量覆盖文件中的配置
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithEnviron 替换环境变量来源，默认 os.Environ()
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// NewConfig 读取配置文件，按扩展名选择解码器：.yaml/.yml .json .toml .ini
func NewConfig(filename string, opts ...Option) (*Config, error) {
	dec, err := decoder.NewDecoderByFilename(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s failed", filename)
	}
	return newConfig(dec, data, opts...)
}

// NewConfigFromBytes format 取值同 decoder.NewDecoder
func NewConfigFromBytes(data []byte, format string, opts ...Option) (*Config, error) {
	dec, err := decoder.NewDecoder(format)
	if err != nil {
		return nil, err
	}
	return newConfig(dec, data, opts...)
}

func newConfig(dec decoder.Decoder, data []byte, opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.environ == nil {
		o.environ = os.Environ()
	}

	s, err := dec.Decode(data)
	if err != nil {
		return nil, errors.WithMessage(err, "decode config failed")
	}
	if ms, ok := s.(*storage.MapStorage); ok {
		decoder.ApplyEnv(ms, o.envPrefix, o.environ)
	}
	return &Config{storage: s}, nil
}

// Sub 获取子配置，key 形如 "database" 或 "servers[0].host"
func (c *Config) Sub(key string) *Config {
	return &Config{storage: c.storage.Sub(key)}
}

// ConvertTo 绑定到结构体，然后填充 def 默认值并按 validate 规则校验
func (c *Config) ConvertTo(object any) error {
	if err := c.storage.ConvertTo(object); err != nil {
		return errors.WithMessage(err, "convert config failed")
	}
	return Complete(object)
}

// Complete 填充默认值并校验，没有配置文件的调用方也走同样的流程
func Complete(object any) error {
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "set defaults failed")
	}
	if err := validator.ValidateStruct(object); err != nil {
		return errors.WithMessage(err, "validate failed")
	}
	return nil
}
