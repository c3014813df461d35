package intgen

import (
	"sync/atomic"
	"time"
)

// IntGenerator 生成 64 位整数 ID，可用作主键默认值
type IntGenerator interface {
	Generate() int64
}

const (
	sequenceBits = 12
	maxSequence  = 1<<sequenceBits - 1
)

// seqClock 毫秒时间戳 + 12 位序列号的无锁状态，
// state 高位是相对 epoch 的毫秒数，低 12 位是序列号
type seqClock struct {
	state int64
	epoch int64
	now   func() int64
}

func newSeqClock(epoch int64) *seqClock {
	c := &seqClock{epoch: epoch, now: func() int64 { return time.Now().UnixMilli() }}
	c.state = (c.now() - epoch) << sequenceBits
	return c
}

// next 返回 (毫秒, 序列号)，同一毫秒内序列号耗尽时自旋到下一毫秒
func (c *seqClock) next() (int64, int64) {
	for {
		old := atomic.LoadInt64(&c.state)
		oldTs, oldSeq := old>>sequenceBits, old&maxSequence

		ts := c.now() - c.epoch
		var seq int64
		switch {
		case ts > oldTs:
			seq = 0
		case oldSeq < maxSequence:
			// 时钟回拨或同一毫秒，沿用旧时间戳
			ts, seq = oldTs, oldSeq+1
		default:
			for ts <= oldTs {
				ts = c.now() - c.epoch
			}
			seq = 0
		}

		if atomic.CompareAndSwapInt64(&c.state, old, ts<<sequenceBits|seq) {
			return ts, seq
		}
	}
}
