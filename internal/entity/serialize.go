package entity

import (
	"fmt"
	"reflect"
	"time"
)

// Serialize converts an entity into a snapshot of JSON-compatible values.
// Nested entities are replaced by {__typename, id} reference stubs rather
// than expanded, which keeps snapshot size bounded on deep graphs.
func Serialize(v any) (map[string]any, error) {
	if s, ok := v.(Serializer); ok {
		return s.SerializeEntity(), nil
	}

	rv := structValue(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot serialize value of type %T", v)
	}

	out := make(map[string]any, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		out[fieldName(f)] = serializeValue(rv.Field(i).Interface())
	}
	return out, nil
}

// fieldName prefers the json tag so snapshots line up with the names the
// GraphQL layer exposes.
func fieldName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("json"); ok {
		name := tag
		for j, c := range tag {
			if c == ',' {
				name = tag[:j]
				break
			}
		}
		if name != "" && name != "-" {
			return name
		}
	}
	return lowerFirst(f.Name)
}

// lowerFirst lower-cases the leading upper-case run of a Go field name so
// initialisms read as one word: Name -> name, ID -> id, URLPath -> urlPath.
func lowerFirst(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && r[n] >= 'A' && r[n] <= 'Z' {
		n++
	}
	// In "URLPath" the last capital of the run starts the next word.
	if n > 1 && n < len(r) && r[n] >= 'a' && r[n] <= 'z' {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = r[i] - 'A' + 'a'
	}
	return string(r)
}

func serializeValue(v any) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return tv
	case time.Time:
		return tv.UTC().Format(time.RFC3339)
	case *time.Time:
		if tv == nil {
			return nil
		}
		return tv.UTC().Format(time.RFC3339)
	}

	if IsEntity(v) {
		key, err := Identify(v)
		if err == nil {
			return map[string]any{"__typename": key.Typename, "id": key.ID}
		}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return serializeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, serializeValue(rv.Index(i).Interface()))
		}
		return items
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			m[fmt.Sprint(k.Interface())] = serializeValue(rv.MapIndex(k).Interface())
		}
		return m
	default:
		// Last resort for unsupported kinds (channels, funcs, ...).
		return fmt.Sprint(v)
	}
}
