package cli

import (
	"fmt"
	"strconv"
	"strings"

	"courrierkit/internal/models"
	"courrierkit/internal/repository"
	"courrierkit/internal/shared"

	"github.com/Masterminds/squirrel"
	"github.com/spf13/cobra"
)

type SampleOptions struct {
	Columns []string
	Where   []string
	OrderBy string
	Limit   uint64
}

func NewInspectCommand(globalOptions *GlobalOptions) *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Read-only inspection of the courrier database",
	}

	var objectTypes []string
	objectsCmd := &cobra.Command{
		Use:   "objects",
		Short: "List sqlite_master entries by type then name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			objects, err := repo.Objects(cmd.Context(), objectTypes...)
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section(fmt.Sprintf("Objects in %s", globalOptions.Conf.Database.Path))
			rows := make([][]string, 0, len(objects))
			for _, o := range objects {
				rows = append(rows, []string{o.Type, o.Name})
			}
			out.Table([]string{"type", "name"}, rows)
			return nil
		},
	}
	objectsCmd.Flags().StringSliceVar(&objectTypes, "type", nil, "Only list these types (table, index, trigger, view).")

	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables with their row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			tables, err := repo.Tables(cmd.Context())
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section(fmt.Sprintf("%d table(s)", len(tables)))
			rows := make([][]string, 0, len(tables))
			for _, t := range tables {
				rows = append(rows, []string{t, strconv.Itoa(repo.SafeCount(cmd.Context(), t))})
			}
			out.Table([]string{"table", "rows"}, rows)
			return nil
		},
	}

	columnsCmd := &cobra.Command{
		Use:   "columns <table>",
		Short: "Show PRAGMA table_info of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			cols, err := repo.Columns(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := printer(cmd)
			out.Section(fmt.Sprintf("Structure of %s", args[0]))
			if len(cols) == 0 {
				out.Fail("Table %s not found", args[0])
				return fmt.Errorf("table %s: %w", args[0], shared.ErrTableNotFound)
			}
			out.Table([]string{"cid", "name", "type", "notnull", "default", "pk"}, columnRows(cols))
			return nil
		},
	}

	schemaCmd := &cobra.Command{
		Use:   "schema <name>",
		Short: "Print the CREATE statement of a table, index or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			stmt, err := repo.TableSQL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printer(cmd).Line("%s", stmt)
			return nil
		},
	}

	countCmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := globalOptions.openRepository(true)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.Count(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printer(cmd).KV(args[0], n)
			return nil
		},
	}

	sampleOptions := &SampleOptions{}
	sampleCmd := &cobra.Command{
		Use:   "sample <table>",
		Short: "Print a few rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, globalOptions, sampleOptions, args[0])
		},
	}
	sampleOptions.registerFlags(sampleCmd)

	inspectCmd.AddCommand(objectsCmd, tablesCmd, columnsCmd, schemaCmd, countCmd, sampleCmd)
	return inspectCmd
}

func (opt *SampleOptions) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&opt.Columns, "columns", nil, "Columns to select; unknown ones are reported.")
	cmd.Flags().StringArrayVar(&opt.Where, "where", nil, "Equality filter column=value, repeatable. A value of NULL matches IS NULL.")
	cmd.Flags().StringVar(&opt.OrderBy, "order-by", "", "Column to order by, optionally followed by ' DESC'.")
	cmd.Flags().Uint64Var(&opt.Limit, "limit", 5, "Maximum number of rows.")
}

// whereClause turns column=value pairs into a squirrel equality.
func (opt *SampleOptions) whereClause() (squirrel.Sqlizer, error) {
	if len(opt.Where) == 0 {
		return nil, nil
	}
	eq := squirrel.Eq{}
	for _, w := range opt.Where {
		col, val, ok := strings.Cut(w, "=")
		col = strings.TrimSpace(col)
		if !ok || !repository.SafeNameRegex.MatchString(col) {
			return nil, fmt.Errorf("filter %q: %w", w, shared.ErrInvalidName)
		}
		if val == "NULL" {
			eq[col] = nil
			continue
		}
		eq[col] = val
	}
	return eq, nil
}

func (opt *SampleOptions) orderBy() (string, error) {
	if opt.OrderBy == "" {
		return "", nil
	}
	col, dir, _ := strings.Cut(strings.TrimSpace(opt.OrderBy), " ")
	if !repository.SafeNameRegex.MatchString(col) {
		return "", fmt.Errorf("order by %q: %w", opt.OrderBy, shared.ErrInvalidName)
	}
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "":
		return col, nil
	case "ASC", "DESC":
		return col + " " + strings.ToUpper(strings.TrimSpace(dir)), nil
	default:
		return "", fmt.Errorf("order by %q: %w", opt.OrderBy, shared.ErrInvalidName)
	}
}

func runSample(cmd *cobra.Command, globalOptions *GlobalOptions, opt *SampleOptions, table string) error {
	where, err := opt.whereClause()
	if err != nil {
		return err
	}
	order, err := opt.orderBy()
	if err != nil {
		return err
	}

	repo, err := globalOptions.openRepository(true)
	if err != nil {
		return err
	}
	defer repo.Close()

	res, err := repo.Sample(cmd.Context(), repository.SampleQuery{
		Table:   table,
		Columns: opt.Columns,
		Where:   where,
		OrderBy: order,
		Limit:   opt.Limit,
	})
	if err != nil {
		return err
	}

	out := printer(cmd)
	out.Section(fmt.Sprintf("Sample of %s (%d row(s))", table, len(res.Rows)))
	for _, m := range res.Missing {
		out.Warn("Column %s does not exist in %s", m, table)
	}
	out.Table(res.Columns, rowStrings(res.Rows))
	return nil
}

func columnRows(cols []models.Column) [][]string {
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, []string{
			strconv.Itoa(c.CID),
			c.Name,
			c.Type,
			strconv.FormatBool(c.NotNull),
			models.Deref(c.Default, ""),
			strconv.Itoa(c.PK),
		})
	}
	return rows
}

func rowStrings(rows []models.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Strings())
	}
	return out
}
