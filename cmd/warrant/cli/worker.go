package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warrantd/warrant/internal/directory"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage the worker roster",
		Long:  "Inspect the authorized worker roster or write an example roster file to edit.",
	}

	cmd.AddCommand(newWorkerListCmd())
	cmd.AddCommand(newWorkerInitCmd())

	return cmd
}

func newWorkerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the workers in the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := directory.LoadFile(resolveRosterPath(cfg))
			if err != nil {
				return fmt.Errorf("load roster: %w", err)
			}

			workers := dir.Workers()
			if len(workers) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Roster is empty (%s).\n", resolveRosterPath(cfg))
				fmt.Fprintln(cmd.OutOrStdout(), "Run 'warrant worker init' to create an example roster.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDEPARTMENT\tSTATUS")
			for _, worker := range workers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", worker.ID, worker.Name, worker.Department, worker.Status)
			}
			return w.Flush()
		},
	}
}

func newWorkerInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example roster file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := resolveRosterPath(cfg)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("create roster directory: %w", err)
			}
			if err := directory.WriteExample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit the file to add your workers, then run 'warrant request <worker-id>'.")
			return nil
		},
	}
}
