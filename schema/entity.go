package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entity is an in-memory row addressed by property path.
type Entity interface {
	// Value returns the value at path and whether it is set.
	Value(path string) (any, bool)
	// SetValue stores v at path.
	SetValue(path string, v any) error
}

// Record is a dynamic Entity. Dotted paths address nested records.
type Record map[string]any

// Value implements Entity.
func (r Record) Value(path string) (any, bool) {
	if v, ok := r[path]; ok {
		return v, true
	}
	head, rest, ok := strings.Cut(path, ".")
	if !ok {
		return nil, false
	}
	switch next := r[head].(type) {
	case Record:
		return next.Value(rest)
	case map[string]any:
		return Record(next).Value(rest)
	case Entity:
		return next.Value(rest)
	}
	return nil, false
}

// SetValue implements Entity.
func (r Record) SetValue(path string, v any) error {
	head, rest, ok := strings.Cut(path, ".")
	if !ok {
		r[path] = v
		return nil
	}
	switch next := r[head].(type) {
	case Record:
		return next.SetValue(rest, v)
	case map[string]any:
		return Record(next).SetValue(rest, v)
	case Entity:
		return next.SetValue(rest, v)
	case nil:
		nested := Record{}
		r[head] = nested
		return nested.SetValue(rest, v)
	default:
		return fmt.Errorf("schema: cannot set %q: %q holds %T", path, head, next)
	}
}

// Bind adapts a pointer to a struct into an Entity. Property names come
// from the `relmap` struct tag or the lower-camel field name. Nested
// structs are addressed with dotted paths.
func Bind(ptr any) Entity {
	return structEntity{v: reflect.ValueOf(ptr)}
}

type structEntity struct {
	v reflect.Value
}

func (s structEntity) Value(path string) (any, bool) {
	f, ok := s.field(path, false)
	if !ok {
		return nil, false
	}
	return f.Interface(), true
}

func (s structEntity) SetValue(path string, v any) error {
	f, ok := s.field(path, true)
	if !ok {
		return fmt.Errorf("schema: no property %q on %s", path, s.v.Type())
	}
	if !f.CanSet() {
		return fmt.Errorf("schema: property %q on %s is not settable", path, s.v.Type())
	}
	return assign(f, v)
}

func (s structEntity) field(path string, alloc bool) (reflect.Value, bool) {
	cur := s.v
	for _, name := range strings.Split(path, ".") {
		for cur.Kind() == reflect.Pointer {
			if cur.IsNil() {
				if !alloc || !cur.CanSet() {
					return reflect.Value{}, false
				}
				cur.Set(reflect.New(cur.Type().Elem()))
			}
			cur = cur.Elem()
		}
		if cur.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		idx, ok := propertyIndex(cur.Type(), name)
		if !ok {
			return reflect.Value{}, false
		}
		cur = cur.Field(idx)
	}
	return cur, true
}

func propertyIndex(t reflect.Type, name string) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("relmap")
		if tag == "-" {
			continue
		}
		if tag != "" {
			tag, _, _ = strings.Cut(tag, ",")
		}
		if tag == name || (tag == "" && lowerFirst(sf.Name) == name) {
			return i, true
		}
	}
	return 0, false
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[n:]
}

// assign stores v into f, converting between compatible kinds.
func assign(f reflect.Value, v any) error {
	if v == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	if f.Kind() == reflect.Pointer && rv.Type() != f.Type() {
		p := reflect.New(f.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		f.Set(p)
		return nil
	}
	switch {
	case rv.Type().AssignableTo(f.Type()):
		f.Set(rv)
	case f.Kind() == reflect.String && rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		f.SetString(string(rv.Bytes()))
	case numeric(f.Kind()) && numeric(rv.Kind()):
		f.Set(rv.Convert(f.Type()))
	case f.Kind() == reflect.Bool && integer(rv.Kind()):
		f.SetBool(rv.Convert(reflect.TypeOf(int64(0))).Int() != 0)
	case f.Kind() != reflect.String && rv.Type().ConvertibleTo(f.Type()):
		f.Set(rv.Convert(f.Type()))
	default:
		return fmt.Errorf("schema: cannot assign %T to %s", v, f.Type())
	}
	return nil
}

func integer(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uint64
}

func numeric(k reflect.Kind) bool {
	return integer(k) || k == reflect.Float32 || k == reflect.Float64
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
