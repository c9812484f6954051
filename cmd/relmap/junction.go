package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/relmap/schema"
)

type junctionView struct {
	Entity      string           `yaml:"entity"`
	Table       string           `yaml:"table"`
	Relation    string           `yaml:"relation,omitempty"`
	Columns     []columnView     `yaml:"columns"`
	ForeignKeys []foreignKeyView `yaml:"foreign_keys"`
	Indices     []indexView      `yaml:"indices,omitempty"`
}

type columnView struct {
	Name       string `yaml:"name"`
	Property   string `yaml:"property"`
	Type       string `yaml:"type"`
	DBType     string `yaml:"db_type,omitempty"`
	Length     string `yaml:"length,omitempty"`
	Primary    bool   `yaml:"primary,omitempty"`
	References string `yaml:"references,omitempty"`
}

type foreignKeyView struct {
	Columns    []string `yaml:"columns"`
	Table      string   `yaml:"table"`
	References []string `yaml:"references"`
	OnDelete   string   `yaml:"on_delete,omitempty"`
	OnUpdate   string   `yaml:"on_update,omitempty"`
}

type indexView struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
}

func newJunctionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "junction",
		Short: "Print the junction tables synthesized for many-to-many relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, junctions, _, err := a.graph(cmd.Context())
			if err != nil {
				return err
			}
			views := make([]junctionView, len(junctions))
			for i, j := range junctions {
				views[i] = newJunctionView(j)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(views); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newJunctionView(e *schema.EntityMetadata) junctionView {
	v := junctionView{Entity: e.Name, Table: e.TablePath()}
	if e.OwnerRelation != nil {
		v.Relation = e.OwnerRelation.String()
	}
	for _, c := range e.Columns {
		cv := columnView{
			Name:     c.DatabaseName,
			Property: c.Path(),
			Type:     c.Type.String(),
			DBType:   c.DBType,
			Length:   c.Length,
			Primary:  c.Primary,
		}
		if c.ReferencedColumn != nil {
			cv.References = c.ReferencedColumn.String()
		}
		v.Columns = append(v.Columns, cv)
	}
	for _, fk := range e.ForeignKeys {
		v.ForeignKeys = append(v.ForeignKeys, foreignKeyView{
			Columns:    fk.Columns,
			Table:      fk.ReferencedTable,
			References: fk.ReferencedColumns,
			OnDelete:   string(fk.OnDelete),
			OnUpdate:   string(fk.OnUpdate),
		})
	}
	for _, idx := range e.Indices {
		v.Indices = append(v.Indices, indexView{Name: idx.Name, Columns: idx.Columns})
	}
	return v
}
