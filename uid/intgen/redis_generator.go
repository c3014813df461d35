package intgen

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string        `cfg:"addr" def:"localhost:6379"`
	Password string        `cfg:"password"`
	DB       int           `cfg:"db"`
	KeyName  string        `cfg:"keyName" def:"uid:sequence"`
	Timeout  time.Duration `cfg:"timeout" def:"3s"`
}

// fallbackFlag 降级生成的 ID 置位的标记，毫秒时间戳左移 12 位后到不了这一位，
// 所以降级 ID 和 redis 分配的 ID 不会重复；多个实例同时降级时彼此之间仍可能重复
const fallbackFlag = int64(1) << 62

// RedisGenerator 毫秒时间戳 + redis INCR 序列号，多实例共享一个计数器保证唯一，
// redis 不可用时退化为带 fallbackFlag 的本地时间戳序列
type RedisGenerator struct {
	client   redis.UniversalClient
	keyName  string
	timeout  time.Duration
	fallback *TimestampSeqGenerator
}

func NewRedisGeneratorWithOptions(options *RedisOptions) *RedisGenerator {
	if options == nil {
		options = &RedisOptions{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
	return NewRedisGeneratorWithClient(client, options)
}

func NewRedisGeneratorWithClient(client redis.UniversalClient, options *RedisOptions) *RedisGenerator {
	if options == nil {
		options = &RedisOptions{}
	}
	g := &RedisGenerator{
		client:   client,
		keyName:  options.KeyName,
		timeout:  options.Timeout,
		fallback: NewTimestampSeqGenerator(),
	}
	if g.keyName == "" {
		g.keyName = "uid:sequence"
	}
	if g.timeout == 0 {
		g.timeout = 3 * time.Second
	}
	return g
}

func (g *RedisGenerator) Generate() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	for {
		ts := time.Now().UnixMilli()
		key := g.keyName + ":" + strconv.FormatInt(ts, 10)

		pipe := g.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 2*time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			return g.fallback.Generate() | fallbackFlag
		}

		seq := incr.Val() - 1
		if seq <= maxSequence {
			return ts<<sequenceBits | seq
		}
		// 本毫秒序列号用完，等下一毫秒
		time.Sleep(time.Millisecond)
	}
}

func (g *RedisGenerator) Close() error {
	return g.client.Close()
}
