// Command migrate inspects and changes the listings database schema.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"homestead/internal/config"
	"homestead/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Homestead database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(upCmd(), autoCmd(), statusCmd(), downCmd())
	return cmd
}

func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, db, nil
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("sql migrations failed: %w", err)
			}
			if missing := database.MissingOwnerLinks(db); len(missing) > 0 {
				return fmt.Errorf("migrations applied but owner constraints are missing on %s", strings.Join(missing, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sql migrations applied")
			return nil
		},
	}
}

func autoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Run GORM AutoMigrate for users, properties and posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			cfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
				return fmt.Errorf("auto schema apply failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "automigrations applied")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schema plan, migration versions and per-table state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
			if err != nil {
				return fmt.Errorf("schema status failed: %w", err)
			}
			return printStatus(cmd.OutOrStdout(), status)
		},
	}
}

func printStatus(out io.Writer, status *database.SchemaStatus) error {
	p := status.Plan
	fmt.Fprintf(out, "mode=%s env=%s run_sql=%t run_auto=%t applied=%v\n\n",
		p.Mode, status.Environment, p.RunSQL, p.RunAuto, status.AppliedVersions)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tEXISTS\tROWS\tOWNER FK\tPENDING")
	for _, t := range status.Tables {
		rows := "-"
		if t.Exists {
			rows = strconv.FormatInt(t.Rows, 10)
		}
		guard := "n/a"
		if t.OwnerGuarded != nil {
			guard = "missing"
			if *t.OwnerGuarded {
				guard = "restrict"
			}
		}
		pending := "-"
		if len(t.Pending) > 0 {
			pending = strings.Join(t.Pending, ",")
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", t.Name, t.Exists, rows, guard, pending)
	}
	return tw.Flush()
}

func downCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			if err := guardRollback(cfg, force); err != nil {
				return err
			}
			if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "allow rollback against a production database")
	return cmd
}

// guardRollback refuses to drop listings tables in production without --force.
func guardRollback(cfg *config.Config, force bool) error {
	if cfg.IsProduction() && !force {
		return fmt.Errorf("refusing to roll back in %q without --force", cfg.Env)
	}
	return nil
}
