package entity

import (
	"fmt"
	"reflect"
)

// Identify resolves the cascade key for a value. The explicit Entity
// capability wins; otherwise the concrete type name is used as the typename
// and an exported ID/Id field supplies the id. An entity without a usable id
// is unrepresentable and returns an error.
func Identify(v any) (Key, error) {
	if v == nil {
		return Key{}, fmt.Errorf("cannot identify nil entity")
	}

	if e, ok := v.(Entity); ok {
		id := e.EntityID()
		if id == "" {
			return Key{}, fmt.Errorf("entity %T has an empty id", v)
		}
		return Key{Typename: e.Typename(), ID: id}, nil
	}

	rv := structValue(v)
	if !rv.IsValid() || rv.Type().Name() == "" {
		return Key{}, fmt.Errorf("value of type %T is not an entity", v)
	}

	id, ok := idField(rv)
	if !ok {
		return Key{}, fmt.Errorf("entity %T has no id field", v)
	}
	return Key{Typename: rv.Type().Name(), ID: id}, nil
}

// IsEntity reports whether a value carries both a typename and an id.
// Primitives and containers are never entities; containers are traversed by
// the walker instead.
func IsEntity(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Entity); ok {
		return true
	}

	rv := structValue(v)
	if !rv.IsValid() || rv.Type().Name() == "" {
		return false
	}
	_, ok := idField(rv)
	return ok
}

// structValue unwraps pointers and returns the struct value behind v, or an
// invalid value when v is not struct-shaped (primitives, maps, slices, ...).
func structValue(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	// time.Time and friends are structs but never entities.
	if rv.Type().PkgPath() == "time" {
		return reflect.Value{}
	}
	return rv
}

func idField(rv reflect.Value) (string, bool) {
	for _, name := range []string{"ID", "Id"} {
		f := rv.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			s := fmt.Sprint(f.Interface())
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}
