package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/toolserve/internal/ir"
	"github.com/roach88/toolserve/internal/queryir"
	"github.com/roach88/toolserve/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	storeFlags
	Filters []string // column=value pairs
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List app_package records",
		Long: `List records straight from the database, the same way GET does.

Each --filter narrows the result to rows whose column equals the value
exactly. Soft-deleted rows (status 0) are included unless filtered out.

Examples:
  toolserve list --db ./toolserve.db
  toolserve list --db ./toolserve.db --filter app_name=calc --filter status=1
  toolserve list --db ./toolserve.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	opts.storeFlags.register(cmd)
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "exact-match filter column=value (repeatable)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, opts.storeFlags)
	if err != nil {
		return err
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cfg.Log, formatter.errWriter())

	filter, err := parseFilters(queryir.AppPackage, opts.Filters)
	if err != nil {
		return commandError(CodeFilter, "invalid filter", err).with("filters", opts.Filters)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, store.Options{
		Driver:           cfg.Store.Driver,
		DSN:              cfg.Store.DSN,
		StatementTimeout: cfg.Store.StatementTimeout,
		MaxOpenConns:     cfg.Store.MaxOpenConns,
		Logger:           logger,
	})
	if err != nil {
		return commandError(CodeStore, "failed to open database", err).with("driver", cfg.Store.Driver)
	}
	defer st.Close()

	formatter.VerboseLog("Listing %s with %d filter(s)", st.Table().Name, len(filter))

	rows, err := st.Select(ctx, filter)
	if err != nil {
		return runtimeError(CodeStore, "failed to list records", err).with("table", st.Table().Name)
	}

	if opts.Format == "json" {
		return formatter.Success(rows)
	}

	total, err := st.Count(ctx)
	if err != nil {
		return runtimeError(CodeStore, "failed to count records", err).with("table", st.Table().Name)
	}
	return writeRowsText(formatter.Writer, st.Table(), rows, total)
}

// parseFilters turns column=value pairs into a filter row in column order.
// Values are typed by the column's kind.
func parseFilters(t queryir.Table, pairs []string) (ir.Row, error) {
	given := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("filter %q must be column=value", pair)
		}
		if _, known := t.Column(name); !known {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if _, dup := given[name]; dup {
			return nil, fmt.Errorf("column %q filtered more than once", name)
		}
		given[name] = value
	}

	filter := ir.Row{}
	for _, col := range t.Columns {
		raw, ok := given[col.Name]
		if !ok {
			continue
		}
		switch col.Kind {
		case ir.KindInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q expects an integer, got %q", col.Name, raw)
			}
			filter = append(filter, ir.F(col.Name, ir.NewInt(n)))
		default:
			filter = append(filter, ir.F(col.Name, ir.NewString(raw)))
		}
	}
	return filter, nil
}

// writeRowsText prints rows as an aligned table with a header line and a
// footer comparing the rows shown with the table total.
func writeRowsText(w io.Writer, t queryir.Table, rows []ir.Row, total int64) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No records found (%d total).\n", total)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.ColumnNames(), "\t")))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, f := range row {
			cells = append(cells, formatValue(f.Value))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d records\n", len(rows), total)
	return err
}

func formatValue(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return string(val)
	case ir.Int:
		return strconv.FormatInt(int64(val), 10)
	default:
		return "-"
	}
}
