package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/syssam/relmap/dialect/sql"
)

type updateFlags struct {
	set       []string
	ids       []string
	where     string
	returning []string
	limit     int
	comment   string
	exec      bool
}

type statementView struct {
	Query     string   `yaml:"query"`
	Args      []any    `yaml:"args"`
	Returning []string `yaml:"returning,omitempty"`
}

type resultView struct {
	Affected int64            `yaml:"affected"`
	Returned []map[string]any `yaml:"returned,omitempty"`
}

func newUpdateCmd(a *app) *cobra.Command {
	var f updateFlags
	cmd := &cobra.Command{
		Use:   "update ENTITY",
		Short: "Compile an UPDATE statement for an entity, optionally executing it",
		Example: `  relmap update User --set name=Ann --id 1 --returning version
  relmap update Member --set role=admin --id orgId=1,userId=2 --exec`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUpdate(cmd, args[0], f)
		},
	}
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "Property assignment as path=value; values are parsed as YAML scalars")
	cmd.Flags().StringArrayVar(&f.ids, "id", nil, "Primary key value, or path=value pairs separated by commas for composite keys")
	cmd.Flags().StringVar(&f.where, "where", "", "Raw condition added to the WHERE clause")
	cmd.Flags().StringSliceVar(&f.returning, "returning", nil, "Property paths to return")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of rows to update")
	cmd.Flags().StringVar(&f.comment, "comment", "", "Comment prepended to the statement")
	cmd.Flags().BoolVar(&f.exec, "exec", false, "Execute the statement against RELMAP_DSN")
	return cmd
}

func (a *app) runUpdate(cmd *cobra.Command, entity string, f updateFlags) error {
	ctx := cmd.Context()
	g, _, capability, err := a.graph(ctx)
	if err != nil {
		return err
	}
	meta, ok := g.Entity(entity)
	if !ok {
		return fmt.Errorf("unknown entity %q", entity)
	}
	u := sql.UpdateOf(meta)
	for _, kv := range f.set {
		path, v, err := parseAssignment(kv)
		if err != nil {
			return err
		}
		u.SetValue(path, v)
	}
	if len(f.ids) > 0 {
		ids := make([]any, len(f.ids))
		for i, raw := range f.ids {
			if ids[i], err = parseID(raw); err != nil {
				return err
			}
		}
		u.WhereInIDs(ids...)
	}
	if f.where != "" {
		u.AndWhere(sql.Raw(f.where))
	}
	if len(f.returning) > 0 {
		u.Returning(f.returning...)
	}
	u.Limit(f.limit)
	if f.comment != "" {
		u.Comment(f.comment)
	}

	st, err := u.Compile(capability)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	if !f.exec {
		return enc.Encode(statementView{Query: st.Query, Args: st.Args, Returning: st.Returning})
	}

	drv, err := a.cfg.Open(a.log)
	if err != nil {
		return err
	}
	defer drv.Close()
	exec := sql.NewExecutor(drv, capability, sql.WithLogger(a.log))
	res, err := exec.Exec(ctx, u, a.cfg.ExecOptions()...)
	if err != nil {
		return err
	}
	a.log.Info("update executed", zap.String("entity", meta.Name), zap.Int64("affected", res.Affected))
	return enc.Encode(resultView{Affected: res.Affected, Returned: res.Returned})
}

func parseAssignment(kv string) (string, any, error) {
	path, raw, ok := strings.Cut(kv, "=")
	if !ok || path == "" {
		return "", nil, fmt.Errorf("invalid assignment %q: want path=value", kv)
	}
	v, err := parseScalar(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid assignment %q: %w", kv, err)
	}
	return path, v, nil
}

// parseID returns a scalar, or a property-keyed map when raw holds
// path=value pairs.
func parseID(raw string) (any, error) {
	if !strings.Contains(raw, "=") {
		return parseScalar(raw)
	}
	m := make(map[string]any)
	for _, kv := range strings.Split(raw, ",") {
		path, v, err := parseAssignment(kv)
		if err != nil {
			return nil, err
		}
		m[path] = v
	}
	return m, nil
}

func parseScalar(raw string) (any, error) {
	if raw == "" {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return nil, fmt.Errorf("%q is not a scalar", raw)
	}
	return v, nil
}
