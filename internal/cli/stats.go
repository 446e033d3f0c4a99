package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"trainloop/internal/checkpoint"
	"trainloop/internal/common/fsutil"
	"trainloop/internal/registry"
	"trainloop/internal/tracking"
)

func newStatsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "stats <output-dir>",
		Short:   "Print the checkpoint stats of an output directory",
		Example: "  trainloop stats runs/exp1",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := fsutil.ExpandHome(args[0])
			if err != nil {
				return err
			}
			st, err := checkpoint.New(dir, zerolog.Nop()).LoadStats()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(stdout)
			if err := enc.Encode(st); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newListCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "list <root>",
		Short:   "List output directories under root with their checkpoint stats",
		Example: "  trainloop list runs/",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := registry.Scan(args[0])
			if err != nil {
				return err
			}
			best, hasBest := registry.Best(entries)
			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DIR\tEPOCH\tBEST_DEV_METRIC\tMODEL\t")
			for _, e := range entries {
				mark := ""
				if hasBest && e.Dir == best.Dir {
					mark = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%g\t%t\t%s\n", e.Dir, e.State.Epoch, e.State.BestDevMetric, e.HasModel, mark)
			}
			return tw.Flush()
		},
	}
}

func newRunsCmd(stdout io.Writer, logger func(string) zerolog.Logger) *cobra.Command {
	var dbPath, runID string
	cmd := &cobra.Command{
		Use:   "runs [output-dir]",
		Short: "List tracked runs of an output directory with their best dev metric",
		Example: "  trainloop runs --tracking-db runs.db runs/exp1\n" +
			"  trainloop runs --tracking-db runs.db --run 0b7c...",
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return fmt.Errorf("--tracking-db is required")
			}
			if (runID == "") == (len(args) == 0) {
				return fmt.Errorf("pass either an output dir or --run")
			}
			store, err := tracking.Open(dbPath, logger(""))
			if err != nil {
				return err
			}
			defer store.Close()
			var runs []tracking.Run
			if runID != "" {
				r, err := store.GetRun(runID)
				if err != nil {
					return err
				}
				runs = append(runs, r)
			} else if runs, err = store.Runs(args[0]); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tNAME\tSTATUS\tSTARTED\tBEST_DEV_METRIC")
			for _, r := range runs {
				best := "-"
				if pts, err := store.Metrics(r.ID, "best_dev_metric"); err == nil && len(pts) > 0 {
					best = fmt.Sprintf("%g", pts[len(pts)-1].Value)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Status, r.StartedAt.Format(time.RFC3339), best)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "tracking-db", "", "SQLite file written by train --tracking-db")
	cmd.Flags().StringVar(&runID, "run", "", "Show a single run by id instead of an output dir")
	return cmd
}
