package sql

import (
	"strings"

	"github.com/syssam/relmap/dialect"
)

// Builder accumulates SQL text and its bind arguments for one dialect.
// Placeholders are numbered in the order arguments are added.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect *dialect.Capability
	// column maps property paths used in predicates to physical names.
	column func(string) string
}

// NewBuilder returns a builder for the given dialect.
func NewBuilder(c *dialect.Capability) *Builder {
	return &Builder{dialect: c}
}

// Dialect returns the capability entry the builder renders for.
func (b *Builder) Dialect() *dialect.Capability { return b.dialect }

// WriteString appends s as is.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Pad appends a space.
func (b *Builder) Pad() *Builder { return b.WriteString(" ") }

// Ident appends an identifier quoted for the dialect. Dotted names are
// quoted per segment.
func (b *Builder) Ident(name string) *Builder {
	return b.WriteString(b.dialect.QuoteIdent(name))
}

// Column appends the physical name of a column given by property path or
// by name.
func (b *Builder) Column(name string) *Builder {
	if b.column != nil {
		name = b.column(name)
	}
	return b.Ident(name)
}

// Arg binds v and appends its placeholder.
func (b *Builder) Arg(v any) *Builder {
	return b.WriteString(b.placeholder(v))
}

// placeholder binds v and returns its marker without writing it.
func (b *Builder) placeholder(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Args binds vs and appends their placeholders separated by commas.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Arg(v)
	}
	return b
}

// Expr appends text, replacing every '?' by the placeholder of the next
// argument. Question marks inside the text cannot be escaped.
func (b *Builder) Expr(text string, args ...any) *Builder {
	for i := 0; i < len(args); i++ {
		idx := strings.IndexByte(text, '?')
		if idx == -1 {
			break
		}
		b.WriteString(text[:idx]).Arg(args[i])
		text = text[idx+1:]
	}
	return b.WriteString(text)
}

// Join appends the items separated by sep.
func (b *Builder) Join(sep string, items ...func(*Builder)) *Builder {
	for i, item := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		item(b)
	}
	return b
}

// idents returns Join items writing each name as an identifier after
// prefix.
func idents(prefix string, names []string) []func(*Builder) {
	items := make([]func(*Builder), len(names))
	for i, name := range names {
		items[i] = func(b *Builder) { b.WriteString(prefix).Ident(name) }
	}
	return items
}

// String returns the written text.
func (b *Builder) String() string { return b.sb.String() }

// Arguments returns the bound arguments in placeholder order.
func (b *Builder) Arguments() []any { return b.args }

// Query returns the text and the arguments.
func (b *Builder) Query() (string, []any) { return b.String(), b.args }
