package schema

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/relmap"
)

// Graph is the registry of entity metadata. It is mutated only while the
// schema is built; after BuildJunctions returns it is safe for concurrent
// readers without locking.
type Graph struct {
	entities map[string]*EntityMetadata
	order    []*EntityMetadata
}

// NewGraph returns a graph holding the given entities.
func NewGraph(entities ...*EntityMetadata) (*Graph, error) {
	g := &Graph{entities: make(map[string]*EntityMetadata, len(entities))}
	for _, e := range entities {
		if err := g.Add(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add registers an entity. Names must be unique.
func (g *Graph) Add(e *EntityMetadata) error {
	if e.Name == "" {
		return relmap.NewConfigurationError("", "entity without a name")
	}
	if _, ok := g.entities[e.Name]; ok {
		return relmap.NewConfigurationError(e.Name, "entity %s is already registered", e.Name)
	}
	if e.Kind == "" {
		e.Kind = KindRegular
	}
	for _, c := range e.Columns {
		if c.EntityName == "" {
			c.EntityName = e.Name
		}
	}
	g.entities[e.Name] = e
	g.order = append(g.order, e)
	return nil
}

// Entity returns the entity with the given name.
func (g *Graph) Entity(name string) (*EntityMetadata, bool) {
	e, ok := g.entities[name]
	return e, ok
}

// Entities returns all entities in registration order.
func (g *Graph) Entities() []*EntityMetadata {
	return g.order
}

// Column resolves a column reference.
func (g *Graph) Column(ref ColumnRef) (*ColumnMetadata, bool) {
	e, ok := g.entities[ref.Entity]
	if !ok {
		return nil, false
	}
	c := e.Column(ref.Property)
	return c, c != nil
}

// Relation resolves a relation reference.
func (g *Graph) Relation(ref RelationRef) (*RelationMetadata, bool) {
	e, ok := g.entities[ref.Entity]
	if !ok {
		return nil, false
	}
	r := e.Relation(ref.Property)
	return r, r != nil
}

// ManyToMany returns the owning sides of all many-to-many relations that
// have no junction yet.
func (g *Graph) ManyToMany() []*RelationMetadata {
	var rels []*RelationMetadata
	for _, e := range g.order {
		for _, r := range e.Relations {
			if r.Kind == ManyToMany && r.JoinTable != nil && r.Junction == nil {
				rels = append(rels, r)
			}
		}
	}
	return rels
}

// BuildJunctions synthesizes the junction of every owning many-to-many
// relation and registers it in the graph. Relations are built in parallel;
// every failure is reported.
func (g *Graph) BuildJunctions(ctx context.Context, b *JunctionBuilder) ([]*EntityMetadata, error) {
	rels := g.ManyToMany()
	var (
		junctions = make([]*EntityMetadata, len(rels))
		errs      = make([]error, len(rels))
		eg        errgroup.Group
	)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range rels {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			junctions[i], errs[i] = b.Build(rel, *rel.JoinTable)
			return nil
		})
	}
	_ = eg.Wait()
	if err := relmap.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	for i, rel := range rels {
		if err := g.Add(junctions[i]); err != nil {
			return nil, err
		}
		rel.Junction = junctions[i]
		if inv := rel.InverseRelation; inv != nil && inv.Kind == ManyToMany {
			inv.Junction = junctions[i]
		}
	}
	return junctions, nil
}
