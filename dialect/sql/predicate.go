package sql

import "strings"

type predOp uint8

const (
	opRaw predOp = iota
	opCond
	opBinary
	opIn
	opIsNull
	opNotNull
	opAnd
	opOr
	opNot
)

// Predicate is a node of a WHERE condition tree. Column names given to
// predicates are property paths when the statement has metadata, and
// physical names otherwise.
type Predicate struct {
	op       predOp
	text     string // raw text, condition template or column
	operator string
	args     []any
	children []*Predicate
}

// Raw returns a predicate written verbatim.
func Raw(text string) *Predicate {
	return &Predicate{op: opRaw, text: text}
}

// Cond returns a predicate whose '?' markers are bound to args in order.
func Cond(text string, args ...any) *Predicate {
	return &Predicate{op: opCond, text: text, args: args}
}

func binary(col, operator string, v any) *Predicate {
	return &Predicate{op: opBinary, text: col, operator: operator, args: []any{v}}
}

// EQ returns a "col = v" predicate. A nil value renders "col IS NULL".
func EQ(col string, v any) *Predicate {
	if v == nil {
		return IsNull(col)
	}
	return binary(col, "=", v)
}

// NEQ returns a "col <> v" predicate. A nil value renders "col IS NOT NULL".
func NEQ(col string, v any) *Predicate {
	if v == nil {
		return NotNull(col)
	}
	return binary(col, "<>", v)
}

// GT returns a "col > v" predicate.
func GT(col string, v any) *Predicate { return binary(col, ">", v) }

// GTE returns a "col >= v" predicate.
func GTE(col string, v any) *Predicate { return binary(col, ">=", v) }

// LT returns a "col < v" predicate.
func LT(col string, v any) *Predicate { return binary(col, "<", v) }

// LTE returns a "col <= v" predicate.
func LTE(col string, v any) *Predicate { return binary(col, "<=", v) }

// In returns a "col IN (...)" predicate. An empty list matches nothing.
func In(col string, vs ...any) *Predicate {
	return &Predicate{op: opIn, text: col, args: vs}
}

// IsNull returns a "col IS NULL" predicate.
func IsNull(col string) *Predicate {
	return &Predicate{op: opIsNull, text: col}
}

// NotNull returns a "col IS NOT NULL" predicate.
func NotNull(col string) *Predicate {
	return &Predicate{op: opNotNull, text: col}
}

// And joins the predicates with AND. Nil predicates are skipped.
func And(preds ...*Predicate) *Predicate {
	return compound(opAnd, preds)
}

// Or joins the predicates with OR. Nil predicates are skipped.
func Or(preds ...*Predicate) *Predicate {
	return compound(opOr, preds)
}

func compound(op predOp, preds []*Predicate) *Predicate {
	p := &Predicate{op: op}
	for _, c := range preds {
		if c != nil {
			p.children = append(p.children, c)
		}
	}
	switch len(p.children) {
	case 0:
		return nil
	case 1:
		return p.children[0]
	}
	return p
}

// Not negates the predicate.
func Not(pred *Predicate) *Predicate {
	return &Predicate{op: opNot, children: []*Predicate{pred}}
}

func (p *Predicate) compound() bool {
	return p.op == opAnd || p.op == opOr
}

// render writes the predicate to b.
func (p *Predicate) render(b *Builder) {
	switch p.op {
	case opRaw:
		b.WriteString(p.text)
	case opCond:
		b.Expr(p.text, p.args...)
	case opBinary:
		b.Column(p.text).Pad().WriteString(p.operator).Pad().Arg(p.args[0])
	case opIn:
		if len(p.args) == 0 {
			b.WriteString("1 = 0")
			return
		}
		b.Column(p.text).WriteString(" IN (").Args(p.args...).WriteString(")")
	case opIsNull:
		b.Column(p.text).WriteString(" IS NULL")
	case opNotNull:
		b.Column(p.text).WriteString(" IS NOT NULL")
	case opAnd, opOr:
		sep := " AND "
		if p.op == opOr {
			sep = " OR "
		}
		for i, c := range p.children {
			if i > 0 {
				b.WriteString(sep)
			}
			c.wrapped(b)
		}
	case opNot:
		b.WriteString("NOT ")
		p.children[0].wrapped(b)
	}
}

func (p *Predicate) wrapped(b *Builder) {
	if p.compound() || p.op == opNot || (p.op == opRaw || p.op == opCond) && needsParens(p.text) {
		b.WriteString("(")
		p.render(b)
		b.WriteString(")")
		return
	}
	p.render(b)
}

// needsParens reports whether raw text joins conditions at its top level.
func needsParens(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, " OR ") || strings.Contains(upper, " AND ")
}

// Field is a typed column name that builds predicates over values of T.
//
//	var Age = sql.Field[int]("age")
//	sql.Update("users").Set(...).Where(Age.GTE(18))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Field[T]) EQ(v T) *Predicate { return EQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Field[T]) NEQ(v T) *Predicate { return NEQ(string(f), v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Field[T]) GT(v T) *Predicate { return GT(string(f), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Field[T]) GTE(v T) *Predicate { return GTE(string(f), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Field[T]) LT(v T) *Predicate { return LT(string(f), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Field[T]) LTE(v T) *Predicate { return LTE(string(f), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f Field[T]) In(vs ...T) *Predicate {
	args := make([]any, len(vs))
	for i, v := range vs {
		args[i] = v
	}
	return In(string(f), args...)
}

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[T]) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[T]) NotNull() *Predicate { return NotNull(string(f)) }
