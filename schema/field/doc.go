// Package field enumerates the logical column types of entity metadata.
//
// Types are declared by constant in Go code or parsed by name from
// declaration files:
//
//	field.TypeString
//	field.Parse("simple-array") // field.TypeSimpleArray
//	field.Parse("datetime")     // field.TypeTime
//
// Physical types are dialect specific and live in ColumnMetadata.DBType.
package field
