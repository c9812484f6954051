package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Drivers selectable through RELMAP_DRIVER.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/syssam/relmap/config"
	"github.com/syssam/relmap/dialect"
	"github.com/syssam/relmap/internal/schemafile"
	"github.com/syssam/relmap/schema"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	schemaPath string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "relmap [command]",
		Short:         "Inspect entity metadata and compile UPDATE statements",
		Long:          `Load entity declarations from a YAML file, synthesize the junction tables of many-to-many relations and compile or execute UPDATE statements for the configured dialect.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (environment variables override it)")
	root.PersistentFlags().StringVarP(&a.schemaPath, "schema", "s", "relmap.yaml", "Entity declaration file")
	root.AddCommand(newJunctionCmd(a), newUpdateCmd(a))
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := cfg.Logger()
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// graph loads the declarations and synthesizes their junctions for the
// configured dialect.
func (a *app) graph(ctx context.Context) (*schema.Graph, []*schema.EntityMetadata, *dialect.Capability, error) {
	if a.schemaPath == "" {
		return nil, nil, nil, errors.New("--schema is required")
	}
	capability, err := a.cfg.Capability()
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := schemafile.Load(a.schemaPath)
	if err != nil {
		return nil, nil, nil, err
	}
	junctions, err := g.BuildJunctions(ctx, schema.NewJunctionBuilder(capability, schema.WithLogger(a.log)))
	if err != nil {
		return nil, nil, nil, err
	}
	res := schema.ValidateGraph(g)
	for _, w := range res.Warnings {
		a.log.Warn("schema warning", zap.Error(w))
	}
	if err := res.Err(); err != nil {
		return nil, nil, nil, err
	}
	a.log.Debug("schema loaded",
		zap.String("path", a.schemaPath),
		zap.String("dialect", capability.Name),
		zap.Int("entities", len(g.Entities())),
		zap.Int("junctions", len(junctions)),
	)
	return g, junctions, capability, nil
}
