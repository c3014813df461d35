package strgen

// StrGenerator 生成字符串 ID
type StrGenerator interface {
	Generate() string
}
