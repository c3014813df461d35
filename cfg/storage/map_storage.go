package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// MapStorage 基于 map[string]any / []any 的配置存储，yaml/json/toml/ini 解码结果都是这种结构
type MapStorage struct {
	data any
}

func NewMapStorage(data any) *MapStorage {
	return &MapStorage{data: data}
}

func (ms *MapStorage) Data() any {
	return ms.data
}

func (ms *MapStorage) Sub(key string) Storage {
	if key == "" {
		return ms
	}
	current := ms.data
	for _, k := range parseKey(key) {
		current = child(current, k)
		if current == nil {
			break
		}
	}
	return NewMapStorage(current)
}

func (ms *MapStorage) ConvertTo(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer")
	}
	return convertValue(ms.data, rv.Elem())
}

// Set 按路径写入一个值，路径上缺失的 map 会被创建，已有 key 大小写不敏感匹配
func (ms *MapStorage) Set(path []string, value any) {
	if len(path) == 0 {
		return
	}
	root, ok := ms.data.(map[string]any)
	if !ok {
		root = map[string]any{}
		ms.data = root
	}
	m := root
	for i, k := range path {
		key := lookupKey(m, k)
		if i == len(path)-1 {
			m[key] = value
			return
		}
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
}

func parseKey(key string) []string {
	key = strings.NewReplacer("[", ".", "]", "").Replace(key)
	var keys []string
	for _, k := range strings.Split(key, ".") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func lookupKey(m map[string]any, key string) string {
	if _, ok := m[key]; ok {
		return key
	}
	for k := range m {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return key
}

func child(data any, key string) any {
	switch v := data.(type) {
	case map[string]any:
		return v[lookupKey(v, key)]
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil
		}
		return v[idx]
	}
	return nil
}

func convertValue(src any, dst reflect.Value) error {
	if src == nil {
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return convertValue(src, dst.Elem())
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) && dst.Kind() != reflect.Struct {
		dst.Set(sv)
		return nil
	}

	if dst.Type() == reflect.TypeOf(time.Duration(0)) {
		return convertDuration(sv, dst)
	}

	// env 和 ini 的值都是字符串，需要按目标类型解析
	if s, ok := src.(string); ok && dst.Kind() != reflect.String {
		return parseString(s, dst)
	}

	switch dst.Kind() {
	case reflect.Struct:
		return convertStruct(sv, dst)
	case reflect.Map:
		return convertMap(sv, dst)
	case reflect.Slice:
		return convertSlice(sv, dst)
	case reflect.Interface:
		if dst.NumMethod() == 0 {
			dst.Set(sv)
			return nil
		}
	case reflect.Bool:
		if sv.Kind() == reflect.Bool {
			dst.SetBool(sv.Bool())
			return nil
		}
		return fmt.Errorf("cannot convert %v to bool", sv.Type())
	case reflect.String:
		if sv.Kind() != reflect.String {
			dst.SetString(fmt.Sprint(src))
			return nil
		}
	}

	if sv.Type().ConvertibleTo(dst.Type()) && isNumber(sv.Kind()) == isNumber(dst.Kind()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("cannot convert %v to %v", sv.Type(), dst.Type())
}

func isNumber(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func parseString(s string, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid bool %q", s)
		}
		dst.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 0, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int %q", s)
		}
		dst.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 0, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid uint %q", s)
		}
		dst.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float %q", s)
		}
		dst.SetFloat(v)
	case reflect.Slice:
		parts := strings.Split(s, ",")
		items := make([]any, len(parts))
		for i, p := range parts {
			items[i] = strings.TrimSpace(p)
		}
		return convertSlice(reflect.ValueOf(items), dst)
	case reflect.Interface:
		dst.Set(reflect.ValueOf(s))
	default:
		return fmt.Errorf("cannot convert string to %v", dst.Type())
	}
	return nil
}

func convertDuration(sv, dst reflect.Value) error {
	switch sv.Kind() {
	case reflect.String:
		d, err := time.ParseDuration(sv.String())
		if err != nil {
			return fmt.Errorf("invalid duration %q", sv.String())
		}
		dst.SetInt(int64(d))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(sv.Int())
	case reflect.Float32, reflect.Float64:
		// 浮点数按秒处理
		dst.SetInt(int64(sv.Float() * float64(time.Second)))
	default:
		return fmt.Errorf("cannot convert %v to time.Duration", sv.Type())
	}
	return nil
}

func convertMap(sv, dst reflect.Value) error {
	if sv.Kind() != reflect.Map {
		return fmt.Errorf("cannot convert %v to map", sv.Type())
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}
	for _, key := range sv.MapKeys() {
		item := reflect.New(dst.Type().Elem()).Elem()
		if err := convertValue(sv.MapIndex(key).Interface(), item); err != nil {
			return fmt.Errorf("key %v: %w", key.Interface(), err)
		}
		if !key.Type().ConvertibleTo(dst.Type().Key()) {
			return fmt.Errorf("cannot convert key %v to %v", key.Type(), dst.Type().Key())
		}
		dst.SetMapIndex(key.Convert(dst.Type().Key()), item)
	}
	return nil
}

func convertSlice(sv, dst reflect.Value) error {
	if sv.Kind() != reflect.Slice && sv.Kind() != reflect.Array {
		return fmt.Errorf("cannot convert %v to slice", sv.Type())
	}
	out := reflect.MakeSlice(dst.Type(), sv.Len(), sv.Len())
	for i := 0; i < sv.Len(); i++ {
		if err := convertValue(sv.Index(i).Interface(), out.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func convertStruct(sv, dst reflect.Value) error {
	if sv.Kind() != reflect.Map {
		return fmt.Errorf("cannot convert %v to struct", sv.Type())
	}
	m := make(map[string]any, sv.Len())
	for _, key := range sv.MapKeys() {
		m[fmt.Sprint(key.Interface())] = sv.MapIndex(key).Interface()
	}

	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fv := dst.Field(i)
		if !fv.CanSet() {
			continue
		}
		name := fieldName(field)
		if name == "-" {
			continue
		}
		value, ok := m[lookupKey(m, name)]
		if !ok {
			continue
		}
		if err := convertValue(value, fv); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

// fieldName 依次取 cfg/json/yaml/toml/ini tag，都没有时用字段名
func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"cfg", "json", "yaml", "toml", "ini"} {
		if v, ok := field.Tag.Lookup(tag); ok {
			if name := strings.Split(v, ",")[0]; name != "" {
				return name
			}
		}
	}
	return field.Name
}
