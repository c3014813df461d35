package orm

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/hatlonely/goorm/rdb"
)

// coerce 把驱动或调用方给出的值转成字段类型对应的 Go 类型：
// 字符串类为 string，布尔为 bool，整数为 int64，浮点为 float64，nil 保持 nil
func coerce(f *Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	var out any
	var err error
	switch f.kind {
	case StringField, TextField:
		out, err = toString(v)
	case BooleanField:
		out, err = toBool(v)
	case IntegerField:
		out, err = toInt64(v)
	case FloatField:
		out, err = toFloat64(v)
	default:
		out = v
	}
	if err != nil {
		return nil, rdb.Wrap(rdb.ErrKindInvalidArgument, fmt.Sprintf("field %s", f.name), err)
	}
	return out, nil
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0, nil
	case reflect.Bool:
		return rv.Bool(), nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", v)
}

func toInt64(v any) (int64, error) {
	if s, ok := v.(string); ok {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int64(f), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v)
}

func toFloat64(v any) (float64, error) {
	if s, ok := v.(string); ok {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("cannot convert %T to float64", v)
}

// setFieldValue 把记录中的值写入结构体字段
func setFieldValue(fv reflect.Value, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.Ptr {
		elem := reflect.New(fv.Type().Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}

	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(fv.Type()) {
		fv.Set(vv)
		return nil
	}
	// string 和数值之间的 Convert 语义不是我们想要的
	if vv.Kind() != reflect.String && fv.Kind() != reflect.String && vv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(vv.Convert(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.String {
		s, err := toString(value)
		if err != nil {
			return err
		}
		fv.SetString(s)
		return nil
	}
	return fmt.Errorf("cannot convert %T to %v", value, fv.Type())
}
