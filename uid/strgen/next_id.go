package strgen

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NextID 50 位字符串 ID：15 位毫秒时间戳 + 32 位 uuid4 hex + "000"，
// 按字典序排序即按创建时间排序，适合作为 varchar(50) 主键
func NextID() string {
	u := uuid.New()
	return fmt.Sprintf("%015d%x000", time.Now().UnixMilli(), u[:])
}

// NextIDGenerator 把 NextID 适配为 StrGenerator
type NextIDGenerator struct{}

func (NextIDGenerator) Generate() string {
	return NextID()
}
