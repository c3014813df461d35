package uid

import (
	"github.com/hatlonely/goorm/uid/intgen"
	"github.com/hatlonely/goorm/uid/strgen"
	"github.com/pkg/errors"
)

// Options 主键生成器配置
type Options struct {
	// snowflake, timestamp, redis, uuid, nextid
	Type      string                   `cfg:"type" def:"snowflake" validate:"oneof=snowflake timestamp redis uuid nextid"`
	Snowflake *intgen.SnowflakeOptions `cfg:"snowflake"`
	Redis     *intgen.RedisOptions     `cfg:"redis"`
	UUID      *strgen.UUIDOptions      `cfg:"uuid"`
}

func NewIntGeneratorWithOptions(options *Options) (intgen.IntGenerator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	switch options.Type {
	case "", "snowflake":
		return intgen.NewSnowflakeGeneratorWithOptions(options.Snowflake), nil
	case "timestamp":
		return intgen.NewTimestampSeqGenerator(), nil
	case "redis":
		return intgen.NewRedisGeneratorWithOptions(options.Redis), nil
	}
	return nil, errors.Errorf("%q is not an int generator", options.Type)
}

func NewStrGeneratorWithOptions(options *Options) (strgen.StrGenerator, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	switch options.Type {
	case "uuid":
		return strgen.NewUUIDGeneratorWithOptions(options.UUID), nil
	case "nextid":
		return strgen.NextIDGenerator{}, nil
	}
	return nil, errors.Errorf("%q is not a string generator", options.Type)
}

// NewProducerWithOptions 按类型返回主键默认值的生成函数
func NewProducerWithOptions(options *Options) (func() any, error) {
	if g, err := NewIntGeneratorWithOptions(options); err == nil {
		return IntProducer(g), nil
	}
	g, err := NewStrGeneratorWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "unsupported id generator")
	}
	return StrProducer(g), nil
}

// IntProducer 适配为 orm.Default 接受的生成函数
func IntProducer(g intgen.IntGenerator) func() any {
	return func() any { return g.Generate() }
}

func StrProducer(g strgen.StrGenerator) func() any {
	return func() any { return g.Generate() }
}
