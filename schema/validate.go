package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/relmap"
)

// Issue is one structural problem found in entity metadata.
type Issue struct {
	Entity  string
	Column  string
	Message string
}

func (i *Issue) Error() string {
	if i.Column != "" {
		return fmt.Sprintf("%s.%s: %s", i.Entity, i.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Entity, i.Message)
}

// ValidationResult holds the results of metadata validation.
type ValidationResult struct {
	Errors   []*Issue
	Warnings []*Issue
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors as a *relmap.ValidationError, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return relmap.NewValidationError("", errors.Join(errs...))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if r.HasErrors() {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - " + e.Error() + "\n")
		}
	}
	if r.HasWarnings() {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - " + w.Error() + "\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) merge(other *ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ValidateJunction checks the structural invariants of a junction entity:
// the primary key is exactly the owner and inverse columns, every column is
// non-null and primary, foreign keys come in a pair or not at all, and no
// physical name is used twice.
func ValidateJunction(e *EntityMetadata) *ValidationResult {
	result := &ValidationResult{}
	if e.Kind != KindJunction {
		result.Errors = append(result.Errors, &Issue{Entity: e.Name, Message: "not a junction entity"})
		return result
	}
	sides := slices.Concat(e.OwnerColumns, e.InverseColumns)
	if len(e.OwnerColumns) == 0 || len(e.InverseColumns) == 0 {
		result.Errors = append(result.Errors, &Issue{Entity: e.Name, Message: "junction needs columns on both sides"})
	}
	if !slices.Equal(columnNames(e.PrimaryColumns()), columnNames(sides)) {
		result.Errors = append(result.Errors, &Issue{
			Entity:  e.Name,
			Message: "primary key differs from the union of owner and inverse columns",
		})
	}
	names := make(map[string]bool, len(e.Columns))
	for _, c := range e.Columns {
		if c.Nullable {
			result.Errors = append(result.Errors, &Issue{Entity: e.Name, Column: c.DatabaseName, Message: "junction column is nullable"})
		}
		if !c.Primary {
			result.Errors = append(result.Errors, &Issue{Entity: e.Name, Column: c.DatabaseName, Message: "junction column is not primary"})
		}
		if c.ReferencedColumn == nil {
			result.Warnings = append(result.Warnings, &Issue{Entity: e.Name, Column: c.DatabaseName, Message: "junction column references no column"})
		}
		if names[c.DatabaseName] {
			result.Errors = append(result.Errors, &Issue{Entity: e.Name, Column: c.DatabaseName, Message: "duplicate column name"})
		}
		names[c.DatabaseName] = true
	}
	switch n := len(e.ForeignKeys); n {
	case 0, 2:
	default:
		result.Errors = append(result.Errors, &Issue{
			Entity:  e.Name,
			Message: fmt.Sprintf("junction has %d foreign keys, want 0 or 2", n),
		})
	}
	for _, fk := range e.ForeignKeys {
		if len(fk.Columns) != len(fk.ReferencedColumns) {
			result.Errors = append(result.Errors, &Issue{
				Entity:  e.Name,
				Message: fmt.Sprintf("foreign key to %s pairs %d columns with %d referenced columns", fk.ReferencedEntityName, len(fk.Columns), len(fk.ReferencedColumns)),
			})
		}
		for _, name := range fk.Columns {
			if !names[name] {
				result.Errors = append(result.Errors, &Issue{
					Entity:  e.Name,
					Message: fmt.Sprintf("foreign key references non-existent column %q", name),
				})
			}
		}
	}
	for _, idx := range e.Indices {
		for _, name := range idx.Columns {
			if !names[name] {
				result.Errors = append(result.Errors, &Issue{
					Entity:  e.Name,
					Message: fmt.Sprintf("index references non-existent column %q", name),
				})
			}
		}
	}
	return result
}

// ValidateGraph validates every junction of g and checks that column
// references resolve.
func ValidateGraph(g *Graph) *ValidationResult {
	result := &ValidationResult{}
	for _, e := range g.Entities() {
		if e.Kind == KindJunction {
			result.merge(ValidateJunction(e))
		}
		for _, c := range e.Columns {
			if c.ReferencedColumn == nil {
				continue
			}
			if _, ok := g.Column(*c.ReferencedColumn); !ok {
				result.Errors = append(result.Errors, &Issue{
					Entity:  e.Name,
					Column:  c.DatabaseName,
					Message: fmt.Sprintf("referenced column %s does not exist", c.ReferencedColumn),
				})
			}
		}
	}
	return result
}
