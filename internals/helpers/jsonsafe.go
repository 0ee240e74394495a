package helper

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* ===============================
   Safe JSON coercion

   Rich values are flattened with one explicit rule set so stored
   contexts (email_context, vat audit payloads) round-trip through
   plain JSON:
     time.Time        -> RFC3339 string
     decimal.Decimal  -> string
     uuid.UUID        -> string
     map              -> map with coerced values
     slice/array      -> list with coerced values
     struct           -> shallow map of exported scalar fields
     pointer          -> coercion of the pointee (nil stays nil)
     anything else    -> fmt.Sprint fallback
=================================*/

func SafeJSONValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339)
	case decimal.Decimal:
		return t.String()
	case uuid.UUID:
		return t.String()
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	case []byte:
		return string(t)
	case error:
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return SafeJSONValue(rv.Elem().Interface())
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		for _, key := range rv.MapKeys() {
			out[fmt.Sprint(key.Interface())] = SafeJSONValue(rv.MapIndex(key).Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, SafeJSONValue(rv.Index(i).Interface()))
		}
		return out
	case reflect.Struct:
		return safeStruct(rv)
	default:
		return fmt.Sprint(v)
	}
}

// SafeJSONMap coerces every value of a context map.
func SafeJSONMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = SafeJSONValue(v)
	}
	return out
}

// safeStruct keeps exported fields whose coerced value is a scalar,
// plus nested time/decimal/uuid values. Deep object graphs are cut off
// at one level to keep stored contexts flat and reloadable.
func safeStruct(rv reflect.Value) map[string]interface{} {
	rt := rv.Type()
	out := make(map[string]interface{}, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := jsonFieldName(f)
		if name == "-" {
			continue
		}
		val := SafeJSONValue(rv.Field(i).Interface())
		switch val.(type) {
		case map[string]interface{}, []interface{}:
			// shallow: nested composites are dropped
		default:
			out[name] = val
		}
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return f.Name
			}
			return tag[:i]
		}
	}
	return tag
}
