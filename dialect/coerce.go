package dialect

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"

	"github.com/syssam/relmap/schema/field"
)

// Layouts used when temporal values are persisted as text.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05.000"
)

// Coerce converts an in-memory value into the form the dialect persists for
// a column of type t (dbType is the optional physical type name). Values of
// unknown shape are returned unchanged.
func (c *Capability) Coerce(v any, t field.Type, dbType string) (any, error) {
	v = deref(v)
	if v == nil {
		return nil, nil
	}
	if id, ok := v.(uuid.UUID); ok {
		return id.String(), nil
	}
	switch t {
	case field.TypeBool:
		if b, ok := v.(bool); ok && !c.NativeBool {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
	case field.TypeDate:
		if tm, ok := v.(time.Time); ok {
			return tm.Format(DateLayout), nil
		}
	case field.TypeTime:
		if tm, ok := v.(time.Time); ok && c.TextDateTime {
			return tm.UTC().Format(DateTimeLayout), nil
		}
	case field.TypeJSON, field.TypeSimpleJSON:
		return jsonText(v)
	case field.TypeSimpleArray:
		return simpleArray(v), nil
	case field.TypeArray:
		if c.NativeArray {
			return pq.Array(v), nil
		}
		return jsonText(v)
	case field.TypeSpatial:
		if c.Spatial == SpatialPostGIS {
			return jsonText(v)
		}
	case field.TypeString, field.TypeText, field.TypeEnum:
		if s, ok := v.(fmt.Stringer); ok && t == field.TypeEnum {
			v = s.String()
		}
		if s, ok := v.(string); ok && c.NationalText && nonUnicode(dbType) {
			return mssql.VarChar(s), nil
		}
	}
	return v, nil
}

// deref unwraps non-nil pointers to plain values. Valuer implementations
// are left for the driver.
func deref(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.(driver.Valuer); ok {
		return v
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func jsonText(v any) (any, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		return string(v), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dialect: encode json value: %w", err)
	}
	return string(b), nil
}

func simpleArray(v any) any {
	switch v := v.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(parts, ",")
}

func nonUnicode(dbType string) bool {
	switch strings.ToLower(dbType) {
	case "varchar", "char", "text":
		return true
	}
	return false
}
