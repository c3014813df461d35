package orm

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 记录类型名到 Schema 的映射，同名重复注册返回已有的 Schema
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: map[string]*Schema{}}
}

// Register 编译并注册，编译失败时不注册任何内容
func (r *Registry) Register(name string, fields []*Field, opts ...SchemaOption) (*Schema, error) {
	if s, ok := r.Get(name); ok {
		return s, nil
	}

	s, err := Compile(name, fields, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.schemas[name]; ok {
		return existing, nil
	}
	r.schemas[name] = s
	return s, nil
}

func (r *Registry) MustRegister(name string, fields []*Field, opts ...SchemaOption) *Schema {
	s, err := r.Register(name, fields, opts...)
	if err != nil {
		panic(fmt.Sprintf("register schema %s failed: %v", name, err))
	}
	return s
}

func (r *Registry) Get(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

func Register(name string, fields []*Field, opts ...SchemaOption) (*Schema, error) {
	return defaultRegistry.Register(name, fields, opts...)
}

func MustRegister(name string, fields []*Field, opts ...SchemaOption) *Schema {
	return defaultRegistry.MustRegister(name, fields, opts...)
}

func Lookup(name string) (*Schema, bool) {
	return defaultRegistry.Get(name)
}
