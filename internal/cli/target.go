package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTargetCmd создаёт группу команд для объектов.
func NewTargetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage targets",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <Type#ID>",
			Short: "Register a target",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := ParseTarget(args[0])
				if err != nil {
					return err
				}
				if err := clientFn().PutTarget(target); err != nil {
					return err
				}
				outputFn().Success(fmt.Sprintf("Target registered: %s", target))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <Type#ID>",
			Short: "Remove a target",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := ParseTarget(args[0])
				if err != nil {
					return err
				}
				if err := clientFn().DeleteTarget(target); err != nil {
					return err
				}
				outputFn().Success(fmt.Sprintf("Target removed: %s", target))
				return nil
			},
		},
		&cobra.Command{
			Use:   "results <Type#ID>",
			Short: "Show validation results of a target",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := ParseTarget(args[0])
				if err != nil {
					return err
				}

				results, err := clientFn().ListResults(target)
				if err != nil {
					return err
				}

				rows := make([][]string, len(results))
				for i, r := range results {
					rows[i] = []string{r.RuleName, strconv.FormatBool(r.Passed), r.Message, r.CreatedAt}
				}
				outputFn().Print([]string{"RULE", "PASSED", "MESSAGE", "CREATED"}, rows, results)
				return nil
			},
		},
	)

	return cmd
}
