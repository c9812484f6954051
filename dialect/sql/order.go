package sql

// Direction is the sort direction of an ORDER BY term.
type Direction string

// Sort directions.
const (
	DirAsc  Direction = "ASC"
	DirDesc Direction = "DESC"
)

// NullsOrder places NULL values in an ORDER BY term.
type NullsOrder string

// Nulls placements.
const (
	NullsDefault NullsOrder = ""
	NullsFirst   NullsOrder = "NULLS FIRST"
	NullsLast    NullsOrder = "NULLS LAST"
)

// Order is one ORDER BY term.
type Order struct {
	Column    string
	Direction Direction
	Nulls     NullsOrder
}

// Asc returns an ascending term for col.
func Asc(col string) Order { return Order{Column: col, Direction: DirAsc} }

// Desc returns a descending term for col.
func Desc(col string) Order { return Order{Column: col, Direction: DirDesc} }

// NullsFirst returns a copy of o that sorts NULL values first.
func (o Order) NullsFirst() Order {
	o.Nulls = NullsFirst
	return o
}

// NullsLast returns a copy of o that sorts NULL values last.
func (o Order) NullsLast() Order {
	o.Nulls = NullsLast
	return o
}

func (o Order) render(b *Builder) {
	dir := o.Direction
	if dir == "" {
		dir = DirAsc
	}
	b.Column(o.Column).Pad().WriteString(string(dir))
	if o.Nulls != NullsDefault {
		b.Pad().WriteString(string(o.Nulls))
	}
}
