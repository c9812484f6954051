// Package field defines the semantic column types understood by the metadata
// graph and the dialect capability table.
package field

// A Type represents a semantic column type. The physical type name used by a
// particular database is carried separately on the column (DBType).
type Type uint8

// List of semantic column types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeDate
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeText
	TypeSimpleArray
	TypeSimpleJSON
	TypeSpatial
	TypeArray
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	endTypes
)

var (
	typeNames = [...]string{
		TypeInvalid:     "invalid",
		TypeBool:        "bool",
		TypeTime:        "time.Time",
		TypeDate:        "date",
		TypeJSON:        "json.RawMessage",
		TypeUUID:        "uuid",
		TypeBytes:       "[]byte",
		TypeEnum:        "enum",
		TypeString:      "string",
		TypeText:        "text",
		TypeSimpleArray: "simple-array",
		TypeSimpleJSON:  "simple-json",
		TypeSpatial:     "spatial",
		TypeArray:       "array",
		TypeOther:       "other",
		TypeInt:         "int",
		TypeInt8:        "int8",
		TypeInt16:       "int16",
		TypeInt32:       "int32",
		TypeInt64:       "int64",
		TypeUint:        "uint",
		TypeUint8:       "uint8",
		TypeUint16:      "uint16",
		TypeUint32:      "uint32",
		TypeUint64:      "uint64",
		TypeFloat32:     "float32",
		TypeFloat64:     "float64",
		TypeDecimal:     "decimal",
	}
	constNames = [...]string{
		TypeJSON:        "TypeJSON",
		TypeUUID:        "TypeUUID",
		TypeTime:        "TypeTime",
		TypeDate:        "TypeDate",
		TypeEnum:        "TypeEnum",
		TypeBytes:       "TypeBytes",
		TypeOther:       "TypeOther",
		TypeText:        "TypeText",
		TypeSimpleArray: "TypeSimpleArray",
		TypeSimpleJSON:  "TypeSimpleJSON",
		TypeSpatial:     "TypeSpatial",
		TypeArray:       "TypeArray",
		TypeDecimal:     "TypeDecimal",
	}
	byName map[string]Type
)

func init() {
	byName = make(map[string]Type, len(typeNames))
	for t := TypeBool; t < endTypes; t++ {
		byName[typeNames[t]] = t
	}
	// Short aliases used by declaration files.
	byName["time"] = TypeTime
	byName["datetime"] = TypeTime
	byName["json"] = TypeJSON
	byName["bytes"] = TypeBytes
	byName["float"] = TypeFloat64
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Temporal reports if the given type holds a point in time or a calendar date.
func (t Type) Temporal() bool {
	return t == TypeTime || t == TypeDate
}

// ConstName returns the constant name of a type.
func (t Type) ConstName() string {
	switch {
	case !t.Valid():
		return typeNames[TypeInvalid]
	case int(t) < len(constNames) && constNames[t] != "":
		return constNames[t]
	default:
		return "Type" + capitalize(typeNames[t])
	}
}

// Parse returns the type registered under the given name, or TypeInvalid.
func Parse(name string) Type {
	return byName[name]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
