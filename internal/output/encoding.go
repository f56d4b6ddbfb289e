package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// DeterministicEncode returns the compact JSON encoding of v with sorted
// keys and nil fields omitted.
func DeterministicEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalizeValue(v)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeterministicEncodeIndented is DeterministicEncode with indentation.
func DeterministicEncodeIndented(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(normalizeValue(v)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// normalizeValue rewrites v into maps, slices and scalars so that
// encoding/json sorts every object key.
func normalizeValue(v any) any {
	if v == nil {
		return nil
	}
	if m, ok := v.(json.Marshaler); ok {
		return m
	}

	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Map:
		if m := normalizeMap(val); m != nil {
			return m
		}
		return nil
	case reflect.Slice, reflect.Array:
		return normalizeSlice(val)
	case reflect.Struct:
		return normalizeStruct(val)
	case reflect.Interface:
		if val.IsNil() {
			return nil
		}
		return normalizeValue(val.Interface())
	case reflect.String:
		return val.String()
	case reflect.Bool:
		return val.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return val.Uint()
	default:
		return val.Interface()
	}
}

func normalizeMap(val reflect.Value) map[string]any {
	if val.IsNil() || val.Len() == 0 {
		return nil
	}
	out := make(map[string]any, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		if nv := normalizeValue(iter.Value().Interface()); nv != nil {
			out[iter.Key().String()] = nv
		}
	}
	return out
}

func normalizeSlice(val reflect.Value) any {
	if val.Kind() == reflect.Slice && val.IsNil() {
		return nil
	}
	// Byte slices keep their base64 form.
	if val.Type().Elem().Kind() == reflect.Uint8 {
		return val.Interface()
	}
	out := make([]any, val.Len())
	for i := range out {
		out[i] = normalizeValue(val.Index(i).Interface())
	}
	return out
}

func normalizeStruct(val reflect.Value) map[string]any {
	out := make(map[string]any)
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, omitEmpty := parseJSONTag(tag)
		if name == "" {
			name = field.Name
		}
		nv := normalizeValue(val.Field(i).Interface())
		if nv == nil || (omitEmpty && isZeroValue(nv)) {
			continue
		}
		out[name] = nv
	}
	return out
}

func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case int64:
		return val == 0
	case uint64:
		return val == 0
	case float32, float64:
		return reflect.ValueOf(val).IsZero()
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
