package intgen

import (
	"net"
	"time"
)

const (
	machineIDBits  = 10
	maxMachineID   = 1<<machineIDBits - 1
	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

// 2020-01-01 00:00:00 UTC
var defaultEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type SnowflakeOptions struct {
	// 机器 ID，为空时取本机 IPv4 的低 10 位
	MachineID *int64 `cfg:"machineID" validate:"omitempty,gte=0,lte=1023"`
	// 起始纪元
	Epoch time.Time `cfg:"epoch"`
}

// SnowflakeGenerator 1 位符号 + 41 位毫秒 + 10 位机器 ID + 12 位序列号
type SnowflakeGenerator struct {
	clock     *seqClock
	machineID int64
}

func NewSnowflakeGeneratorWithOptions(options *SnowflakeOptions) *SnowflakeGenerator {
	if options == nil {
		options = &SnowflakeOptions{}
	}
	machineID := machineIDFromIP()
	if options.MachineID != nil {
		machineID = *options.MachineID
	}
	epoch := options.Epoch
	if epoch.IsZero() {
		epoch = defaultEpoch
	}
	return &SnowflakeGenerator{
		clock:     newSeqClock(epoch.UnixMilli()),
		machineID: machineID & maxMachineID,
	}
}

func (g *SnowflakeGenerator) Generate() int64 {
	ts, seq := g.clock.next()
	return ts<<timestampShift | g.machineID<<machineIDShift | seq
}

func machineIDFromIP() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil {
			return (int64(ip[2])<<8 | int64(ip[3])) & maxMachineID
		}
	}
	return 0
}
