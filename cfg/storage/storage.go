package storage

// Storage 层级化的配置数据
type Storage interface {
	// Sub 获取子配置，key 支持 "database.replicas[0].host" 形式
	Sub(key string) Storage

	// ConvertTo 把配置绑定到结构体、map、slice 等任意结构
	ConvertTo(object any) error
}
