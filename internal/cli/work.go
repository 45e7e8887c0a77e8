package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewWorkCmd создаёт группу команд для запланированных работ.
func NewWorkCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Manage scheduled work items",
	}

	cmd.AddCommand(
		newWorkListCmd(clientFn, outputFn),
		newWorkAddCmd(clientFn, outputFn),
		newWorkRunCmd(clientFn, outputFn),
	)

	return cmd
}

var workHeaders = []string{"ID", "KIND", "TARGET", "RUN DATE", "ATTEMPTS", "LAST ERROR"}

func workRow(w WorkItemResponse) []string {
	return []string{
		w.ID, w.Kind, w.TargetType + "#" + w.TargetID, w.RunDate,
		strconv.Itoa(w.Attempts), w.LastError,
	}
}

func newWorkListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListWorkItemsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := clientFn().ListWorkItems(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(items))
			for i, w := range items {
				rows[i] = workRow(w)
			}

			outputFn().Print(workHeaders, rows, items)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Filter by work kind")
	cmd.Flags().StringVar(&opts.TargetType, "target-type", "", "Filter by target type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of items")

	return cmd
}

func newWorkAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var kind, at string
	var in time.Duration

	cmd := &cobra.Command{
		Use:   "add <Type#ID>",
		Short: "Schedule work for a target",
		Example: `  concord work add Order#42
  concord work add Order#42 --kind validation --in 10m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ParseTarget(args[0])
			if err != nil {
				return err
			}

			req := CreateWorkItemRequest{Kind: kind, TargetType: target.Type, TargetID: target.ID}
			switch {
			case at != "" && in != 0:
				return fmt.Errorf("--at and --in are mutually exclusive")
			case at != "":
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				req.RunDate = t.UTC().Format(time.RFC3339)
			case in != 0:
				req.RunDate = time.Now().Add(in).UTC().Format(time.RFC3339)
			}

			item, err := clientFn().CreateWorkItem(req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Work item scheduled: %s", item.ID))
			out.Fields([]Field{
				{"ID", item.ID},
				{"Kind", item.Kind},
				{"Target", item.TargetType + "#" + item.TargetID},
				{"Run date", item.RunDate},
			}, item)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "validation", "Work kind")
	cmd.Flags().StringVar(&at, "at", "", "Run date (RFC3339)")
	cmd.Flags().DurationVar(&in, "in", 0, "Run after duration (e.g. 10m)")

	return cmd
}

func newWorkRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process all due work items now",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := clientFn().RunWork()
			if err != nil {
				return err
			}

			outputFn().Fields([]Field{
				{"Due", strconv.Itoa(summary.Due)},
				{"Processed", strconv.Itoa(summary.Processed)},
				{"Failed", fmt.Sprintf("%d (contended: %d)", summary.Failed, summary.Contended)},
				{"Skipped", strconv.Itoa(summary.Skipped)},
			}, summary)
			return nil
		},
	}
}
