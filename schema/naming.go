package schema

import (
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
)

// NamingStrategy derives physical names for synthesized metadata.
// Implementations must be pure and deterministic.
type NamingStrategy interface {
	// JoinTableName names the link table of a many-to-many relation.
	JoinTableName(ownerTable, inverseTable, relationPath, inverseProperty string) string
	// JoinTableColumnName names an owner-side junction column.
	JoinTableColumnName(table, propertyName, databaseName string) string
	// JoinTableInverseColumnName names an inverse-side junction column.
	JoinTableInverseColumnName(table, propertyName, databaseName string) string
	// JoinTableColumnDuplicationPrefix renames a junction column whose name
	// clashes with a column on the other side.
	JoinTableColumnDuplicationPrefix(name string, n int) string
}

// DefaultNamingStrategy is the NamingStrategy used when none is configured.
type DefaultNamingStrategy struct{}

// JoinTableName returns owner_relation_inverse in snake case.
func (DefaultNamingStrategy) JoinTableName(ownerTable, inverseTable, relationPath, _ string) string {
	return inflect.Underscore(ownerTable + "_" + strings.ReplaceAll(relationPath, ".", "_") + "_" + inverseTable)
}

// JoinTableColumnName returns tableColumn in lower camel case.
func (DefaultNamingStrategy) JoinTableColumnName(table, propertyName, databaseName string) string {
	return joinColumnName(table, propertyName, databaseName)
}

// JoinTableInverseColumnName returns tableColumn in lower camel case.
func (DefaultNamingStrategy) JoinTableInverseColumnName(table, propertyName, databaseName string) string {
	return joinColumnName(table, propertyName, databaseName)
}

// JoinTableColumnDuplicationPrefix returns name_n.
func (DefaultNamingStrategy) JoinTableColumnDuplicationPrefix(name string, n int) string {
	return name + "_" + strconv.Itoa(n)
}

func joinColumnName(table, propertyName, databaseName string) string {
	name := propertyName
	if databaseName != "" {
		name = databaseName
	}
	return inflect.CamelizeDownFirst(table + "_" + name)
}

var _ NamingStrategy = DefaultNamingStrategy{}
