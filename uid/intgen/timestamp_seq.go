package intgen

// TimestampSeqGenerator 高 52 位毫秒时间戳 + 低 12 位序列号，单进程内唯一且递增
type TimestampSeqGenerator struct {
	clock *seqClock
}

func NewTimestampSeqGenerator() *TimestampSeqGenerator {
	return &TimestampSeqGenerator{clock: newSeqClock(0)}
}

func (g *TimestampSeqGenerator) Generate() int64 {
	ts, seq := g.clock.next()
	return ts<<sequenceBits | seq
}
